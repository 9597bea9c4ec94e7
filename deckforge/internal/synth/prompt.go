package synth

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/duoflash/mistake"
)

// BuildPrompt renders a batch of captured mistakes into the instruction
// sent to the model. The answer format is pinned down hard because the
// caller parses the reply as JSON.
func BuildPrompt(deckName string, records []mistake.Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analiza estos errores de Duolingo y crea un mazo de Anki llamado %q.\n\n", deckName)
	b.WriteString("ERRORES:\n")
	for i, r := range records {
		fmt.Fprintf(&b, "\n%d. Pregunta: %q", i+1, r.Prompt)
		if r.IsAudio {
			b.WriteString(" (ejercicio de audio)")
		}
		fmt.Fprintf(&b, "\n   Respuesta usuario: %q\n   Respuesta correcta: %q\n", r.UserAnswer, r.CorrectAnswer)
	}

	b.WriteString(`
INSTRUCCIONES:
1. Categoriza cada error (Traducción incorrecta, Error de gramática, Falta de vocabulario, Error de conjugación, Orden de palabras incorrecto, etc.)
2. Crea tarjetas Anki con front/back
3. Da un consejo específico para cada categoría

RESPONDE ÚNICAMENTE CON JSON ESTRICTO:
{
  "mazo": `)
	fmt.Fprintf(&b, "%q", deckName)
	b.WriteString(`,
  "tarjetas": [
    {
      "front": "texto en idioma original",
      "back": "traducción correcta",
      "categoria": "nombre de categoría",
      "consejo": "consejo específico y práctico"
    }
  ]
}

SIN TEXTO ADICIONAL. SOLO JSON.`)

	return b.String()
}
