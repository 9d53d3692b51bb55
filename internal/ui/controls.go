package ui

import (
	"fmt"

	"wildfire-ca/internal/sims/fire"
)

// StatusLines summarises a tick for the side panel and the terminal viewer.
func StatusLines(st fire.StepStats) []string {
	return []string{
		fmt.Sprintf("tick      %d", st.Step),
		fmt.Sprintf("burning   %d", st.Burning),
		fmt.Sprintf("burned    %d", st.Burned),
		fmt.Sprintf("fuel      %d", st.Fuel),
		fmt.Sprintf("perimeter %d", st.Perimeter),
		fmt.Sprintf("burn      %.1f%%", st.BurnRatio*100),
		fmt.Sprintf("max heat  %.2f", st.MaxHeat),
	}
}
