package textsearch

// synonyms is a static table of code-domain near-synonyms used for
// query-time expansion only; documents are never expanded at index time.
// Lookups are one-way: the key's entries are added, nothing is reversed.
var synonyms = map[string][]string{
	"audio":          {"sound", "wav", "mp3", "music", "speaker", "volume"},
	"animation":      {"animate", "animated", "animating", "motion", "transition"},
	"animate":        {"animation", "animated", "animating", "motion"},
	"database":       {"db", "sql", "sqlite", "postgres", "mysql", "query"},
	"db":             {"database", "sql", "sqlite"},
	"auth":           {"authentication", "authorize", "login", "credential"},
	"authentication": {"auth", "login", "credential", "password", "user"},
	"login":          {"auth", "signin", "authentication"},
	"error":          {"exception", "fail", "invalid", "problem"},
	"exception":      {"error", "raise", "catch", "handle"},
	"config":         {"configuration", "settings", "options", "preferences"},
	"configuration":  {"config", "settings", "setup"},
	"http":           {"request", "response", "api", "rest", "web"},
	"api":            {"endpoint", "route", "http", "rest"},
	"file":           {"path", "directory", "folder", "io"},
	"parse":          {"parser", "parsing", "extract", "analyze"},
	"parser":         {"parse", "parsing", "tokenize"},
	"test":           {"testing", "unittest", "pytest", "spec"},
	"valid":          {"validate", "validation", "validator", "check"},
	"validate":       {"valid", "validation", "validator", "verify"},
	"connect":        {"connection", "connected", "connecting", "link"},
	"connection":     {"connect", "connected", "link", "socket"},
	"index":          {"indexer", "indexing", "indexed"},
	"indexer":        {"index", "indexing"},
	"search":         {"find", "query", "lookup", "match"},
	"user":           {"account", "profile", "member"},
	"create":         {"make", "new", "add", "insert", "generate"},
	"delete":         {"remove", "destroy", "drop"},
	"update":         {"modify", "change", "edit", "patch"},
	"get":            {"fetch", "retrieve", "read", "obtain"},
	"set":            {"assign", "store", "write", "put"},
	"load":           {"read", "import", "fetch", "retrieve"},
	"save":           {"write", "store", "export", "persist"},
	"send":           {"transmit", "emit", "dispatch", "post"},
	"receive":        {"get", "accept", "handle"},
	"process":        {"handle", "execute", "run", "perform"},
	"handle":         {"process", "manage", "deal"},
	"cache":          {"store", "buffer", "memory"},
	"encrypt":        {"encryption", "hash", "secure", "crypto"},
	"decrypt":        {"decryption", "decode"},
}
