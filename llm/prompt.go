package llm

import (
	"fmt"
	"strings"

	"leaddesk/config"
	"leaddesk/knowledge"
	"leaddesk/models"
)

const maxSnippetChars = 600

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one prior message of the conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ContactView is what the prompt is allowed to know about the contact.
type ContactView struct {
	Name          string               `json:"name"`
	Company       string               `json:"company"`
	InterestLevel models.InterestLevel `json:"interest_level"`
	Channel       models.Channel       `json:"channel"`
}

// TurnsFromMessages converts stored messages to prompt turns.
func TurnsFromMessages(msgs []models.Message) []Turn {
	out := make([]Turn, 0, len(msgs))
	for _, m := range msgs {
		role := RoleUser
		if m.Sender == models.MESSAGE_SENDER_AGENT {
			role = RoleAssistant
		}
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		out = append(out, Turn{Role: role, Content: m.Content})
	}
	return out
}

var phaseByInterest = map[models.InterestLevel]string{
	models.InterestNew: "Fase: primer contacto. Saluda con calidez, preséntate en una frase y pregunta qué le gustaría " +
		"mejorar en su equipo con IA.",
	models.InterestContacted: "Fase: descubrimiento. Responde su duda y haz una sola pregunta para entender el tamaño o el " +
		"área de su equipo; menciona un beneficio concreto del workshop.",
	models.InterestInterested: "Fase: cierre. Resuelve dudas de precio, fechas o modalidad y propone agendar una llamada " +
		"en {scheduling} o llamar al {phone}.",
	models.InterestConfirmed: "Fase: seguimiento. El contacto ya confirmó; aclara detalles logísticos y agradece su confianza.",
	models.InterestNotInterested: "Fase: despedida. No insistas ni vendas; agradece y deja disponible el contacto {phone} " +
		"por si cambia de opinión.",
}

// BuildSystemPrompt assembles persona, funnel phase, knowledge and contact
// summary into one system message.
func BuildSystemPrompt(persona config.AgentConfig, human config.HumanContactConfig, contact ContactView, snippets []knowledge.Snippet) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Eres %s, asesor de ventas del workshop \"%s\".\n", persona.Name, persona.WorkshopTitle)
	if persona.Personality != "" {
		fmt.Fprintf(&b, "Personalidad: %s.\n", strings.TrimRight(persona.Personality, "."))
	}
	if persona.Tone != "" {
		fmt.Fprintf(&b, "Tono: %s.\n", strings.TrimRight(persona.Tone, "."))
	}
	if persona.Goal != "" {
		fmt.Fprintf(&b, "Objetivo: %s.\n", strings.TrimRight(persona.Goal, "."))
	}
	b.WriteString("Reglas: responde en español, en máximo 3 frases cortas, sin markdown ni listas. ")
	b.WriteString("No inventes precios, fechas ni datos que no aparezcan abajo. ")
	fmt.Fprintf(&b, "Si el usuario pide hablar con una persona, comparte el teléfono %s.\n\n", human.Phone)

	phase, ok := phaseByInterest[contact.InterestLevel]
	if !ok {
		phase = phaseByInterest[models.InterestNew]
	}
	b.WriteString(strings.NewReplacer("{phone}", human.Phone, "{scheduling}", human.SchedulingURL).Replace(phase))
	b.WriteString("\n")

	if len(snippets) > 0 {
		b.WriteString("\nInformación relevante:\n")
		for _, s := range snippets {
			text := strings.TrimSpace(s.Text)
			if text == "" {
				continue
			}
			if r := []rune(text); len(r) > maxSnippetChars {
				text = string(r[:maxSnippetChars]) + "..."
			}
			b.WriteString("- ")
			if s.Title != "" {
				b.WriteString(s.Title)
				b.WriteString(": ")
			}
			b.WriteString(text)
			b.WriteString("\n")
		}
	}

	b.WriteString("\nContacto: ")
	name := contact.Name
	if name == "" || name == models.UnknownContactName {
		name = "desconocido"
	}
	fmt.Fprintf(&b, "nombre %s", name)
	if contact.Company != "" {
		fmt.Fprintf(&b, "; empresa %s", contact.Company)
	}
	fmt.Fprintf(&b, "; interés %s; canal %s.\n", contact.InterestLevel, contact.Channel)
	return b.String()
}
