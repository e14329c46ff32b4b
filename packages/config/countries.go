package config

// DefaultCountries are the Nuffic education-system identifiers scraped when no
// countries file is configured.
var DefaultCountries = []string{
	"afghanistan",
	"albania",
	"algeria",
	"argentina",
	"aruba",
	"australia",
	"austria",
	"bangladesh",
	"belgium-flemish-community",
	"belgium-french-community",
	"bosnia-and-herzegovina",
	"brazil",
	"bulgaria",
	"cameroon",
	"canada",
	"chile",
	"china",
	"colombia",
	"costa-rica",
	"croatia",
	"curacao-st-maarten-and-the-bes-islands",
	"cyprus",
	"czechia",
	"denmark",
	"ecuador",
	"egypt",
	"eritrea",
	"estonia",
	"ethiopia",
	"european-baccalaureate",
	"finland",
	"france",
	"georgia",
	"germany",
	"ghana",
	"greece",
	"hong-kong",
	"hungary",
	"iceland",
	"india",
	"indonesia",
	"international-baccalaureate",
	"iran",
	"iraq",
	"ireland",
	"israel",
	"italy",
	"japan",
	"jordan",
	"kazakhstan",
	"kenya",
	"latvia",
	"lebanon",
	"lithuania",
	"luxembourg",
	"malaysia",
	"mexico",
	"moldova",
	"morocco",
	"nepal",
	"new-zealand",
	"nigeria",
	"north-macedonia",
	"norway",
	"pakistan",
	"peru",
	"philippines",
	"poland",
	"portugal",
	"romania",
	"russia",
	"rwanda",
	"saudi-arabia",
	"serbia",
	"singapore",
	"slovakia",
	"slovenia",
	"south-africa",
	"south-korea",
	"spain",
	"sri-lanka",
	"sudan",
	"surinam",
	"sweden",
	"switzerland",
	"syria",
	"taiwan",
	"tanzania",
	"thailand",
	"tunisia",
	"turkey",
	"the-netherlands",
	"uganda",
	"ukraine",
	"united-kingdom-england-wales-and-northern-ireland",
	"united-kingdom-scotland",
	"united-states",
	"venezuela",
	"vietnam",
	"yemen",
	"zimbabwe",
}
