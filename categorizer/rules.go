package categorizer

import "github.com/aqlanhadi/analyzer/extractor/common"

// Uncategorized is assigned when no override or rule matches.
const Uncategorized = "Uncategorized"

// Rule maps description keywords to a category. Keywords are upper case.
type Rule struct {
	Category string
	Keywords []string
}

// DefaultRules is the built-in table, evaluated in order: the first rule with any keyword
// contained in the description wins.
var DefaultRules = []Rule{
	{"Rideshare / Transport", []string{"UBER", "LYFT", "TAXI", "PARKING", "METRO", "TRANSIT"}},
	{"Gas / Fuel", []string{"SHELL", "EXXON", "CHEVRON", "BP ", "SUNOCO", "CITGO", "FUEL", "GAS STATION", "SPEEDWAY", "WAWA"}},
	{"Groceries", []string{"WALMART", "TARGET", "COSTCO", "WHOLE FOODS", "TRADER JOE", "KROGER", "ALDI", "SAFEWAY", "PUBLIX", "HEB ", "GROCERY"}},
	{"Restaurants / Dining", []string{"MCDONALD", "STARBUCKS", "CHIPOTLE", "CHICK-FIL", "SUBWAY", "DUNKIN", "DOORDASH", "GRUBHUB", "UBER EATS", "RESTAURANT", "PIZZA", "CAFE", "DINER", "TACO BELL", "WENDY", "BURGER KING", "PANERA"}},
	{"Shopping / Retail", []string{"AMAZON", "AMZN", "APPLE.COM", "BEST BUY", "HOME DEPOT", "LOWES", "IKEA", "NORDSTROM", "MACYS", "ROSS", "TJ MAXX", "MARSHALLS"}},
	{"Insurance", []string{"PROGRESSIVE", "GEICO", "STATE FARM", "ALLSTATE", "INSURANCE", "OSCAR", "AETNA", "CIGNA", "UNITED HEALTH", "HUMANA", "BLUE CROSS"}},
	{"Utilities", []string{"ELECTRIC", "GAS BILL", "WATER BILL", "INTERNET", "COMCAST", "VERIZON", "AT&T", "T-MOBILE", "SPRINT", "XFINITY", "SPECTRUM", "CON EDISON", "CONED"}},
	{"Subscriptions", []string{"NETFLIX", "SPOTIFY", "HULU", "DISNEY+", "HBO", "APPLE MUSIC", "YOUTUBE", "ADOBE", "MICROSOFT", "GOOGLE STORAGE", "ICLOUD"}},
	{"Government / Tax", []string{"IRS", "TAX", "DMV", "STATE OF", "FEDERAL", "GOVT", "GOVERNMENT"}},
	{"P2P Transfers", []string{"ZELLE", "VENMO", "CASHAPP", "CASH APP", "PAYPAL"}},
	{"Wire / ACH Transfer", []string{"WIRE", "ACH", "TRANSFER", "XFER"}},
	{"Health / Medical", []string{"PHARMACY", "CVS", "WALGREENS", "DOCTOR", "HOSPITAL", "MEDICAL", "DENTAL", "CLINIC", "HEALTH"}},
	{"Education", []string{"UNIVERSITY", "COLLEGE", "SCHOOL", "TUITION", "STUDENT", "COURSERA", "UDEMY"}},
	{"Rent / Housing", []string{"RENT", "MORTGAGE", "LANDLORD", "PROPERTY", "HOA"}},
	{"Bank Fees", []string{"SERVICE FEE", "OVERDRAFT", "ATM FEE", "MONTHLY FEE", "MAINTENANCE FEE", "LATE FEE"}},
	{"Cash / ATM", []string{"ATM", "CASH WITHDRAWAL", "CASH DEPOSIT"}},
	{"Income / Deposit", []string{"DIRECT DEP", "PAYROLL", "SALARY", "DEPOSIT", "REFUND"}},
	{"Check", []string{"CHECK #", "CHECK NO", "CHECKCARD"}},
}

type channelRule struct {
	channel  common.Channel
	keywords []string
}

// channelRules is checked in order; the first rule with a keyword present wins.
var channelRules = []channelRule{
	{common.ChannelACH, []string{"ACH", "ELECTRONIC"}},
	{common.ChannelZelle, []string{"ZELLE"}},
	{common.ChannelVenmo, []string{"VENMO"}},
	{common.ChannelWire, []string{"WIRE"}},
	{common.ChannelCheck, []string{"CHECK"}},
	{common.ChannelCash, []string{"ATM", "CASH"}},
	{common.ChannelCard, []string{"CARD", "PURCHASE", "DEBIT", "POS"}},
}
