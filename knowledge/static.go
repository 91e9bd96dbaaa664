package knowledge

import (
	"context"
	"strings"
)

// Entry is one built-in fact.
type Entry struct {
	Title    string
	Text     string
	Keywords []string
}

// Static searches a fixed list of entries by keyword overlap.
type Static struct {
	Entries []Entry
}

// NewStatic returns a provider over the built-in workshop facts.
func NewStatic() *Static {
	return &Static{Entries: WorkshopEntries(DefaultContact{})}
}

func (s *Static) Search(ctx context.Context, query string, topK int) ([]Snippet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	terms := queryTerms(query)
	if len(terms) == 0 {
		return nil, nil
	}
	var out []Snippet
	for _, e := range s.Entries {
		score := keywordScore(terms, e.Keywords, e.Title+" "+e.Text)
		if score <= 0 {
			continue
		}
		out = append(out, Snippet{Title: e.Title, Text: e.Text, Score: score, Source: "static"})
	}
	return best(out, topK), nil
}

// DefaultContact fills the contact details embedded in the workshop facts.
type DefaultContact struct {
	Phone         string
	SchedulingURL string
	Website       string
}

// WorkshopEntries returns the facts about the "Sé más eficiente con IA"
// workshop.
func WorkshopEntries(c DefaultContact) []Entry {
	if c.Phone == "" {
		c.Phone = "5535913417"
	}
	if c.SchedulingURL == "" {
		c.SchedulingURL = "https://calendly.com/scaie/consulta"
	}
	if c.Website == "" {
		c.Website = "www.scaie.com.mx"
	}

	return []Entry{
		{
			Title: "Descripción del workshop",
			Text: "Sé más eficiente con IA: un workshop práctico para que tu equipo aprenda a usar inteligencia artificial " +
				"sin código en sus procesos diarios. Aumenta la productividad y elimina la brecha entre perfiles jr y sr.",
			Keywords: []string{"workshop", "taller", "curso", "que es", "informacion", "info", "de que trata", "about"},
		},
		{
			Title:    "Duración",
			Text:     "Versión corta de 2 horas, versión completa de 4 horas, y formato flexible adaptable a las necesidades del equipo.",
			Keywords: []string{"duracion", "dura", "cuanto dura", "horas", "how long", "duration", "tiempo"},
		},
		{
			Title:    "Modalidades",
			Text:     "Online en vivo (recomendado), presencial o híbrido.",
			Keywords: []string{"modalidad", "online", "presencial", "hibrido", "virtual", "remoto", "donde"},
		},
		{
			Title: "Temario",
			Text: "Introducción a la IA generativa; herramientas sin código para automatizar tareas; análisis de datos con IA; " +
				"creación de contenido con IA; identificación de oportunidades de automatización; herramientas gratuitas para la eficiencia.",
			Keywords: []string{"temario", "contenido", "temas", "programa", "aprender", "syllabus", "agenda del curso"},
		},
		{
			Title: "Precios",
			Text: "Básico: $1,499 MXN (2 horas, online en vivo, hasta 10 personas). " +
				"Profesional: $2,999 MXN (4 horas, online o presencial, hasta 20 personas). " +
				"Empresarial: $5,000 MXN (4 horas, máximo 10 personas, contenido específico para el equipo).",
			Keywords: []string{"precio", "precios", "costo", "cuanto", "cuanto cuesta", "price", "cost", "how much", "cotizacion", "quote"},
		},
		{
			Title: "Resultados e inclusiones",
			Text: "Sales con 3 herramientas de IA activas, un proceso automatizado en tu área, plantillas y prompts personalizados " +
				"y un plan de implementación. Incluye diagnóstico previo, manual, grabación de la sesión y seguimiento de 30 minutos.",
			Keywords: []string{"incluye", "resultados", "beneficios", "que obtengo", "benefits", "certificado", "manual", "grabacion"},
		},
		{
			Title: "Público objetivo",
			Text: "Equipos de ventas, personal administrativo, gerentes y supervisores, emprendedores y cualquier persona " +
				"interesada en mejorar su eficiencia. No se necesita saber programar.",
			Keywords: []string{"para quien", "publico", "requisitos", "programar", "se programar", "requirements", "equipo"},
		},
		{
			Title:    "Políticas",
			Text:     "Reembolsos disponibles hasta 48 horas antes del evento; cambios de fecha con 24 horas de anticipación.",
			Keywords: []string{"reembolso", "reembolsos", "cancelar", "cambio de fecha", "refund", "politica"},
		},
		{
			Title: "Contacto y agenda",
			Text: strings.Join([]string{
				"Teléfono/WhatsApp: " + c.Phone,
				"Agenda una llamada: " + c.SchedulingURL,
				"Sitio web: " + c.Website,
			}, ". ") + ".",
			Keywords: []string{"telefono", "numero", "whatsapp", "agendar", "llamada", "cita", "contacto", "phone", "call", "schedule", "fecha", "fechas", "horario"},
		},
	}
}
