package extract

// Fixed domain vocabularies. These are read-only tables built at process
// start and shared across all sessions.

var soilTypes = []string{
	"clay",
	"sandy",
	"loamy",
	"silty",
	"black",
	"alluvial",
}

var seasons = []string{
	"kharif",
	"rabi",
	"zaid",
	"summer",
	"winter",
	"monsoon",
}

var indianStates = []string{
	"andhra pradesh",
	"arunachal pradesh",
	"assam",
	"bihar",
	"chhattisgarh",
	"goa",
	"gujarat",
	"haryana",
	"himachal pradesh",
	"jharkhand",
	"karnataka",
	"kerala",
	"madhya pradesh",
	"maharashtra",
	"manipur",
	"meghalaya",
	"mizoram",
	"nagaland",
	"odisha",
	"punjab",
	"rajasthan",
	"sikkim",
	"tamil nadu",
	"telangana",
	"tripura",
	"uttar pradesh",
	"uttarakhand",
	"west bengal",
}

var cropNames = []string{
	"rice",
	"wheat",
	"maize",
	"cotton",
	"sugarcane",
	"soybean",
	"groundnut",
	"mustard",
	"millet",
	"barley",
	"tomato",
	"potato",
	"onion",
	"chilli",
	"turmeric",
	"banana",
	"mango",
}
