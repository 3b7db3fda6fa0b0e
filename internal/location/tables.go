package location

import "ecomart/pkg/geo"

type entry struct {
	key   string
	place Place
}

func place(lat, lng float64, name string) Place {
	return Place{Point: geo.Point{Latitude: lat, Longitude: lng}, DisplayName: name}
}

// Delivery cities. Order matters: the first key contained in a label wins.
var cityTable = []entry{
	{"new delhi", place(28.6139, 77.2090, "New Delhi, India")},
	{"delhi", place(28.6139, 77.2090, "Delhi, India")},
	{"mumbai", place(19.0760, 72.8777, "Mumbai, India")},
	{"bombay", place(19.0760, 72.8777, "Mumbai, India")},
	{"chennai", place(13.0827, 80.2707, "Chennai, India")},
	{"kolkata", place(22.5726, 88.3639, "Kolkata, India")},
	{"bengaluru", place(12.9716, 77.5946, "Bengaluru, India")},
	{"bangalore", place(12.9716, 77.5946, "Bengaluru, India")},
	{"hyderabad", place(17.3850, 78.4867, "Hyderabad, India")},
	{"ahmedabad", place(23.0225, 72.5714, "Ahmedabad, India")},
	{"pune", place(18.5204, 73.8567, "Pune, India")},
	{"jaipur", place(26.9124, 75.7873, "Jaipur, India")},
	{"lucknow", place(26.8467, 80.9462, "Lucknow, India")},
	{"chandigarh", place(30.7333, 76.7794, "Chandigarh, India")},
	{"gurugram", place(28.4595, 77.0266, "Gurugram, India")},
	{"noida", place(28.5355, 77.3910, "Noida, India")},
}

// Product origin countries
var countryTable = []entry{
	{"usa", place(40.7128, -74.0060, "New York, USA")},
	{"china", place(39.9042, 116.4074, "Beijing, China")},
	{"germany", place(52.5200, 13.4050, "Berlin, Germany")},
	{"japan", place(35.6762, 139.6503, "Tokyo, Japan")},
	{"uk", place(51.5074, -0.1278, "London, UK")},
	{"france", place(48.8566, 2.3522, "Paris, France")},
	{"italy", place(41.9028, 12.4964, "Rome, Italy")},
	{"canada", place(45.4215, -75.6972, "Ottawa, Canada")},
	{"australia", place(-35.2809, 149.1300, "Canberra, Australia")},
	{"brazil", place(-15.7801, -47.9292, "Brasília, Brazil")},
}

var (
	defaultCity   = place(19.0760, 72.8777, "Unknown Location")
	defaultOrigin = place(40.7128, -74.0060, "Unknown Origin")
)
