package banner

import (
	"apiperf/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

func GetString() string {
	renderer := lipgloss.DefaultRenderer()

	style := renderer.NewStyle().
		Foreground(styles.ColorBanner).
		Bold(true)

	ascii := `
    ___    ____  ________  __________  ______
   /   |  / __ \/  _/ __ \/ ____/ __ \/ ____/
  / /| | / /_/ // // /_/ / __/ / /_/ / /_
 / ___ |/ ____// // ____/ /___/ _, _/ __/
/_/  |_/_/   /___/_/   /_____/_/ |_/_/       `

	return "\n" + style.Render(ascii) + "\n"
}
