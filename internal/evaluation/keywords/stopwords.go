package keywords

// stopWords is the folded Spanish stop-word list. Words of two runes or fewer
// are omitted since the length filter already drops them.
var stopWords = map[string]struct{}{
	"algo": {}, "alguna": {}, "algunas": {}, "alguno": {}, "algunos": {},
	"ante": {}, "antes": {}, "aqui": {}, "asi": {}, "aun": {},
	"bien": {}, "buen": {}, "buena": {}, "buenas": {}, "bueno": {}, "buenos": {},
	"cada": {}, "como": {}, "con": {}, "contra": {}, "cual": {}, "cuales": {},
	"cuando": {}, "cuanto": {}, "del": {}, "desde": {}, "donde": {}, "dos": {},
	"ella": {}, "ellas": {}, "ello": {}, "ellos": {}, "entonces": {}, "entre": {},
	"era": {}, "eran": {}, "esa": {}, "esas": {}, "ese": {}, "eso": {}, "esos": {},
	"esta": {}, "estaba": {}, "estamos": {}, "estan": {}, "estar": {}, "estas": {},
	"este": {}, "esto": {}, "estos": {}, "estoy": {}, "fue": {}, "fueron": {},
	"gracias": {}, "favor": {}, "hay": {}, "hace": {}, "hacer": {}, "han": {},
	"has": {}, "hasta": {}, "hemos": {}, "hola": {}, "las": {}, "les": {},
	"los": {}, "mas": {}, "mis": {}, "mucho": {}, "muchos": {}, "muy": {},
	"nada": {}, "nos": {}, "nosotros": {}, "nuestra": {}, "nuestro": {},
	"otra": {}, "otras": {}, "otro": {}, "otros": {}, "para": {}, "pero": {},
	"poco": {}, "por": {}, "porque": {}, "pues": {}, "que": {}, "quien": {},
	"quienes": {}, "quiero": {}, "quisiera": {}, "sea": {}, "ser": {}, "sera": {},
	"sido": {}, "siempre": {}, "sin": {}, "sobre": {}, "son": {}, "soy": {},
	"sus": {}, "tal": {}, "tambien": {}, "tanto": {}, "tener": {}, "tengo": {},
	"tiene": {}, "tienen": {}, "todo": {}, "todos": {}, "toda": {}, "todas": {},
	"tus": {}, "una": {}, "unas": {}, "uno": {}, "unos": {}, "usted": {},
	"ustedes": {}, "vez": {}, "vosotros": {},
}

// IsStopWord reports whether a folded token is a Spanish stop word.
func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}
