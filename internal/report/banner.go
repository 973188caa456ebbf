package report

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/vibecheck/vibecheck/internal/types"
)

var (
	shipBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			Padding(0, 2)

	shipStyle  = shipBoxStyle.Foreground(lipgloss.Color("10")).BorderForeground(lipgloss.Color("10"))
	warnStyle  = shipBoxStyle.Foreground(lipgloss.Color("11")).BorderForeground(lipgloss.Color("11"))
	blockStyle = shipBoxStyle.Foreground(lipgloss.Color("9")).BorderForeground(lipgloss.Color("9"))
)

func renderShipBanner(score int, verdict types.ShipVerdict, diagnostics []string, noColor bool) string {
	body := fmt.Sprintf("%s — Ship Score %d/100", verdict, score)
	for _, d := range diagnostics {
		body += "\n  - " + d
	}

	if noColor {
		return body
	}

	switch verdict {
	case types.VerdictShip:
		return shipStyle.Render(body)
	case types.VerdictWarn:
		return warnStyle.Render(body)
	default:
		return blockStyle.Render(body)
	}
}
