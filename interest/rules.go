package interest

import "sort"

// Keyword sets are written already folded (lower case, no accents, single
// spaces) so they can be matched directly against tools.Fold output.

// Bare "no", "despues" or "later" show up in plain questions ("no se como
// funciona", "que pasa despues del curso"), so they only count as a refusal
// when they are the whole message (see negativeReplies).
var negativePhrases = sortedLongestFirst([]string{
	"nope",
	"not interested",
	"no interesado",
	"no estoy interesado",
	"no estoy interesada",
	"no me interesa",
	"no gracias",
	"no thanks",
	"no thank you",
	"no tengo tiempo",
	"no puedo",
	"no tengo",
	"no ahora",
	"not now",
	"ahora no",
	"ocupado",
	"ocupada",
	"busy",
	"otro momento",
	"mas tarde",
	"caro",
	"muy caro",
	"expensive",
	"too expensive",
	"costoso",
	"unsubscribe",
	"stop",
	"dejen de escribir",
	"no me escriban",
})

// negativeReplies are refusals only as a complete message.
var negativeReplies = []string{
	"no",
	"no no",
	"nel",
	"despues",
	"luego",
	"later",
	"maybe later",
}

var strongPhrases = []string{
	"precio",
	"precios",
	"price",
	"prices",
	"pricing",
	"cost",
	"costo",
	"cuanto",
	"cuanto cuesta",
	"how much",
	"quiero",
	"i want",
	"me interesa",
	"interesado",
	"interesada",
	"interested",
	"inscribirme",
	"inscripcion",
	"registrarme",
	"sign up",
	"agendar",
	"agenda",
	"cita",
	"appointment",
	"llamada",
	"call me",
	"llamame",
	"cotizacion",
	"quote",
	"demo",
	"telefono",
	"numero",
	"whatsapp",
	"phone",
	"pagar",
	"pago",
	"pay",
	"comprar",
	"buy",
}

var mediumPhrases = []string{
	"hola",
	"hi",
	"hello",
	"hey",
	"buenas",
	"buenos dias",
	"buenas tardes",
	"buenas noches",
	"saludos",
	"informacion",
	"info",
	"information",
	"detalles",
	"details",
	"como funciona",
	"how does it work",
	"proceso",
	"process",
	"duracion",
	"duration",
	"cuanto dura",
	"how long",
	"horario",
	"horarios",
	"schedule",
	"fechas",
	"fecha",
	"when",
	"cuando",
	"temario",
	"contenido",
	"modalidad",
	"online",
	"presencial",
	"certificado",
	"certificate",
	"requisitos",
	"requirements",
	"beneficios",
	"benefits",
	"curso",
	"taller",
	"workshop",
	"course",
}

// replyOfferPhrases detect an agent reply that proposed a call, a scheduling
// link or asked for the contact's phone number.
var replyOfferPhrases = []string{
	"calendly",
	"agendar",
	"agenda una llamada",
	"agendemos",
	"schedule a call",
	"book a call",
	"tu numero",
	"tu telefono",
	"your phone number",
	"your number",
}

func sortedLongestFirst(in []string) []string {
	out := append([]string(nil), in...)
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}
