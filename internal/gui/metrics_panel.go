package gui

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"lens-overlay/internal/metrics"
)

// MetricsPanel displays render loop statistics.
type MetricsPanel struct {
	vbox  *fyne.Container
	label *widget.Label
}

func NewMetricsPanel() *MetricsPanel {
	mp := &MetricsPanel{
		label: widget.NewLabel("Render statistics appear once the camera is running."),
	}
	mp.vbox = container.NewVBox(widget.NewCard("Render Stats", "", mp.label))
	return mp
}

func (mp *MetricsPanel) GetContainer() fyne.CanvasObject {
	return mp.vbox
}

// Watch polls stats every interval until ctx is done.
func (mp *MetricsPanel) Watch(ctx context.Context, interval time.Duration, stats func() metrics.Stats) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				text := formatStats(stats().Map())
				fyne.Do(func() {
					mp.label.SetText(text)
				})
			}
		}
	}()
}

func formatStats(values map[string]float64) string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	text := ""
	for _, name := range names {
		value := values[name]
		switch name {
		case "fps":
			text += fmt.Sprintf("FPS: %.1f\n", value)
		case "last_render_ms", "average_render_ms":
			text += fmt.Sprintf("%s: %.2f\n", name, value)
		default:
			text += fmt.Sprintf("%s: %.0f\n", name, value)
		}
	}
	return text
}
