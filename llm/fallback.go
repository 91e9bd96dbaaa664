package llm

import (
	"fmt"

	"leaddesk/config"
)

// fallbackText is the canned reply served for class. Every variant points
// the user to a human.
func fallbackText(class ErrorClass, notConfigured bool, human config.HumanContactConfig) string {
	switch {
	case notConfigured:
		return fmt.Sprintf("Nuestro asistente no está configurado en este momento. "+
			"Para atenderte, llámanos o escríbenos al %s, o agenda una llamada en %s.", human.Phone, human.SchedulingURL)
	case class == ClassRateLimited:
		return fmt.Sprintf("Estamos recibiendo muchos mensajes en este momento. "+
			"Si no quieres esperar, llámanos al %s o agenda una llamada en %s.", human.Phone, human.SchedulingURL)
	default:
		return fmt.Sprintf("Disculpa, tuve un problema técnico para responderte. "+
			"Puedes llamarnos al %s o agendar una llamada en %s y con gusto te atendemos.", human.Phone, human.SchedulingURL)
	}
}
