package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"autocopy/scheduler"
)

var (
	armedColor     = color.NRGBA{R: 0x4C, G: 0xAF, B: 0x50, A: 0xFF}
	executingColor = color.NRGBA{R: 0xFF, G: 0x98, B: 0x00, A: 0xFF}
)

// StatusLabel shows the countdown line, tinted by recurrence phase
type StatusLabel struct {
	widget.BaseWidget
	text  string
	phase scheduler.Phase

	textObj *canvas.Text
	bgRect  *canvas.Rectangle
}

// NewStatusLabel creates an idle, empty status label
func NewStatusLabel() *StatusLabel {
	sl := &StatusLabel{}
	sl.ExtendBaseWidget(sl)
	return sl
}

// CreateRenderer implements fyne.Widget
func (sl *StatusLabel) CreateRenderer() fyne.WidgetRenderer {
	sl.textObj = canvas.NewText(sl.text, theme.ForegroundColor())
	sl.textObj.TextSize = theme.TextSize() * 1.2
	sl.textObj.Alignment = fyne.TextAlignCenter

	sl.bgRect = canvas.NewRectangle(color.Transparent)
	sl.bgRect.CornerRadius = theme.InputRadiusSize()

	r := &statusLabelRenderer{
		label:     sl,
		container: container.NewStack(sl.bgRect, container.NewPadded(sl.textObj)),
	}
	r.Refresh()
	return r
}

// SetStatus updates the text and phase
func (sl *StatusLabel) SetStatus(text string, phase scheduler.Phase) {
	if sl.text == text && sl.phase == phase {
		return
	}
	sl.text = text
	sl.phase = phase
	sl.Refresh()
}

// Text returns the displayed text
func (sl *StatusLabel) Text() string {
	return sl.text
}

// colors returns the background and text colors for the current phase.
func (sl *StatusLabel) colors() (color.Color, color.Color) {
	switch sl.phase {
	case scheduler.Armed:
		return armedColor, color.White
	case scheduler.Executing:
		return executingColor, color.White
	default:
		return color.Transparent, theme.ForegroundColor()
	}
}

type statusLabelRenderer struct {
	label     *StatusLabel
	container *fyne.Container
}

func (r *statusLabelRenderer) MinSize() fyne.Size {
	return r.container.MinSize()
}

func (r *statusLabelRenderer) Layout(size fyne.Size) {
	r.container.Resize(size)
}

func (r *statusLabelRenderer) Refresh() {
	bg, fg := r.label.colors()
	r.label.textObj.Text = r.label.text
	r.label.textObj.Color = fg
	r.label.bgRect.FillColor = bg
	r.label.textObj.Refresh()
	r.label.bgRect.Refresh()
}

func (r *statusLabelRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.container}
}

func (r *statusLabelRenderer) Destroy() {}
