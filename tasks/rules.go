package tasks

import (
	"time"

	"leaddesk/models"
	"leaddesk/tools"
)

// Trigger is a follow-up the inbound text asks for.
type Trigger struct {
	Kind     string
	Title    string
	Priority string
	DueIn    time.Duration
	Matched  string
}

type rule struct {
	kind     string
	title    string
	priority string
	dueIn    time.Duration
	phrases  []string
}

// rules are evaluated in order; every matching rule yields one trigger.
var rules = []rule{
	{
		kind:     models.TASK_KIND_ESCALATE,
		title:    "Atender solicitud de contacto humano",
		priority: models.TASK_PRIORITY_HIGH,
		phrases: []string{
			"humano", "human", "persona real", "real person", "asesor", "agente humano",
			"hablar con alguien", "hablar con una persona", "talk to someone", "talk to a person",
			"representante", "representative", "operador",
		},
	},
	{
		kind:     models.TASK_KIND_BROCHURE,
		title:    "Enviar folleto del workshop",
		priority: models.TASK_PRIORITY_MEDIUM,
		dueIn:    24 * time.Hour,
		phrases:  []string{"folleto", "brochure", "catalogo", "temario", "pdf", "presentacion"},
	},
	{
		kind:     models.TASK_KIND_QUOTE,
		title:    "Preparar cotización",
		priority: models.TASK_PRIORITY_MEDIUM,
		dueIn:    24 * time.Hour,
		phrases:  []string{"cotizacion", "cotizar", "quote", "presupuesto", "factura", "invoice"},
	},
	{
		kind:     models.TASK_KIND_DEMO,
		title:    "Agendar demostración",
		priority: models.TASK_PRIORITY_MEDIUM,
		dueIn:    24 * time.Hour,
		phrases:  []string{"demo", "demostracion", "demonstration", "prueba gratis", "trial"},
	},
}

// Detect returns the triggers fired by an inbound message, in rule order.
func Detect(text string) []Trigger {
	folded := tools.Fold(text)
	if folded == "" {
		return nil
	}
	var out []Trigger
	for _, r := range rules {
		for _, p := range r.phrases {
			if tools.HasPhrase(folded, p) {
				out = append(out, Trigger{
					Kind:     r.kind,
					Title:    r.title,
					Priority: r.priority,
					DueIn:    r.dueIn,
					Matched:  p,
				})
				break
			}
		}
	}
	return out
}
