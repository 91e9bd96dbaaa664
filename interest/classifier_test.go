package interest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"leaddesk/models"
)

func TestNextStateTable(t *testing.T) {
	cases := []struct {
		name    string
		current models.InterestLevel
		msg     string
		reply   string
		want    models.InterestLevel
	}{
		{"greeting moves new to contacted", models.InterestNew, "Hi", "", models.InterestContacted},
		{"spanish greeting", models.InterestNew, "¡Hola! Buenas tardes", "", models.InterestContacted},
		{"price question", models.InterestContacted, "What's the price?", "", models.InterestInterested},
		{"price question from new", models.InterestNew, "¿Cuánto cuesta el taller?", "", models.InterestInterested},
		{"refusal", models.InterestNew, "Not interested, thanks", "", models.InterestNotInterested},
		{"spanish refusal", models.InterestInterested, "No me interesa, gracias", "", models.InterestNotInterested},
		{"refusal with greeting", models.InterestContacted, "Hola, no gracias", "", models.InterestNotInterested},
		{"negative and strong cancel out", models.InterestNew, "No tengo tiempo hoy, pero ¿cuál es el precio?", "", models.InterestInterested},
		{"no inside a question", models.InterestNew, "Hola, no sé cómo funciona el taller", "", models.InterestContacted},
		{"despues inside a question", models.InterestNew, "¿Qué pasa después del curso?", "", models.InterestContacted},
		{"later inside a question", models.InterestNew, "Hi, I don't know the schedule, when is it? I can join later", "", models.InterestContacted},
		{"bare no", models.InterestContacted, "No.", "", models.InterestNotInterested},
		{"bare despues", models.InterestNew, "Después", "", models.InterestNotInterested},
		{"medium escalates contacted", models.InterestContacted, "¿Cómo funciona el curso?", "", models.InterestInterested},
		{"reply offers scheduling", models.InterestContacted, "ok", "Puedes agendar aquí: https://calendly.com/x", models.InterestInterested},
		{"reply asks for phone", models.InterestNew, "vale", "¿Me compartes tu número?", models.InterestInterested},
		{"neutral keeps new", models.InterestNew, "ok", "Claro.", models.InterestNew},
		{"interested does not regress on medium", models.InterestInterested, "hola", "", models.InterestInterested},
		{"confirmed stays confirmed", models.InterestConfirmed, "¿Cuánto cuesta?", "", models.InterestConfirmed},
		{"confirmed can drop out", models.InterestConfirmed, "ya no me interesa", "", models.InterestNotInterested},
		{"not interested is absorbing", models.InterestNotInterested, "quiero el precio", "agendar", models.InterestNotInterested},
		{"invalid current treated as new", models.InterestLevel(42), "hola", "", models.InterestContacted},
		{"word boundaries", models.InterestNew, "nombre: notario", "", models.InterestNew},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NextState(tc.current, tc.msg, tc.reply))
		})
	}
}

func TestNeutralMessageIsIdempotent(t *testing.T) {
	neutral := []string{"ok", "gracias", "entendido", "👍", ""}
	for _, s := range models.InterestLevels() {
		for _, msg := range neutral {
			once := NextState(s, msg, msg)
			assert.Equal(t, s, once, "state %s msg %q", s, msg)
			assert.Equal(t, once, NextState(once, msg, msg))
		}
	}
}

func TestNextStateIsPure(t *testing.T) {
	inputs := []string{"Hi", "What's the price?", "Not interested, thanks", "ok"}
	first := make([]models.InterestLevel, 0, len(inputs))
	for _, in := range inputs {
		first = append(first, NextState(models.InterestNew, in, ""))
	}
	// reverse order, same answers
	for i := len(inputs) - 1; i >= 0; i-- {
		assert.Equal(t, first[i], NextState(models.InterestNew, inputs[i], ""))
	}
}

func TestNeverLeavesFunnelBackwards(t *testing.T) {
	msgs := []string{"hola", "precio", "no gracias", "ok", "demo", "horarios"}
	for _, s := range models.InterestLevels() {
		for _, m := range msgs {
			next := NextState(s, m, "")
			if next == models.InterestNotInterested {
				continue
			}
			assert.GreaterOrEqual(t, int(next), int(s), "from %s with %q", s, m)
		}
	}
}

func TestDetect(t *testing.T) {
	s := Detect("Not interested, thanks", "")
	assert.Equal(t, []string{"not interested"}, s.Negative)
	assert.Empty(t, s.Strong)
	assert.False(t, s.Positive())

	s = Detect("Hola, quiero información del precio", "Te comparto el enlace de calendly")
	assert.Contains(t, s.Strong, "quiero")
	assert.Contains(t, s.Strong, "precio")
	assert.Contains(t, s.Medium, "hola")
	assert.Contains(t, s.ReplyOffers, "calendly")
}
