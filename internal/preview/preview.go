// Package preview shows the artifacts of a run in a desktop window.
package preview

import (
	"fmt"
	"image"
	"image/color"

	"contour-counter/internal/opencv/conversion"
	"contour-counter/internal/pipeline"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

const (
	ImageAreaWidth  = 600
	ImageAreaHeight = 450
)

// View is one tab per artifact above a status line.
type View struct {
	container *fyne.Container
	tabs      *container.AppTabs
	images    map[string]*canvas.Image
	status    *widget.Label
}

// NewView converts every artifact of result to an image and lays them out.
// The result may be closed once NewView returns.
func NewView(result *pipeline.Result) (*View, error) {
	artifacts := result.Artifacts()
	if len(artifacts) == 0 {
		return nil, fmt.Errorf("nothing to preview")
	}

	v := &View{
		tabs:   container.NewAppTabs(),
		images: make(map[string]*canvas.Image, len(artifacts)),
	}

	for _, artifact := range artifacts {
		img, err := conversion.MatToImage(artifact.Mat)
		if err != nil {
			return nil, fmt.Errorf("artifact %s: %w", artifact.Name, err)
		}
		v.tabs.Append(container.NewTabItem(artifact.Name, v.imagePane(artifact.Name, img)))
	}
	v.tabs.SetTabLocation(container.TabLocationTop)

	v.status = widget.NewLabel(fmt.Sprintf("%s  |  %s  |  %d artifacts", result.Label, result.SourcePath, len(artifacts)))
	v.container = container.NewBorder(nil, v.status, nil, nil, v.tabs)
	return v, nil
}

func (v *View) imagePane(name string, img image.Image) fyne.CanvasObject {
	display := canvas.NewImageFromImage(img)
	display.FillMode = canvas.ImageFillContain
	display.ScaleMode = canvas.ImageScaleSmooth
	display.SetMinSize(fyne.NewSize(ImageAreaWidth, ImageAreaHeight))
	v.images[name] = display

	b := img.Bounds()
	header := widget.NewRichTextFromMarkdown(fmt.Sprintf("**%s** %dx%d", name, b.Dx(), b.Dy()))
	background := canvas.NewRectangle(color.RGBA{R: 252, G: 252, B: 252, A: 255})

	return container.NewBorder(container.NewHBox(header), nil, nil, nil, container.NewStack(background, display))
}

// Select switches to the named artifact tab.
func (v *View) Select(name string) bool {
	for _, item := range v.tabs.Items {
		if item.Text == name {
			v.tabs.Select(item)
			return true
		}
	}
	return false
}

func (v *View) Selected() string {
	if item := v.tabs.Selected(); item != nil {
		return item.Text
	}
	return ""
}

func (v *View) Image(name string) (image.Image, bool) {
	display, ok := v.images[name]
	if !ok {
		return nil, false
	}
	return display.Image, true
}

func (v *View) Status() string {
	return v.status.Text
}

func (v *View) Content() fyne.CanvasObject {
	return v.container
}

// Show opens a window with the artifacts of result and blocks until it is
// closed.
func Show(title string, result *pipeline.Result) error {
	view, err := NewView(result)
	if err != nil {
		return err
	}

	a := app.NewWithID("io.contour-counter.preview")
	w := a.NewWindow(title)
	w.SetContent(view.Content())
	w.Resize(fyne.NewSize(ImageAreaWidth+40, ImageAreaHeight+120))
	w.SetMaster()
	w.ShowAndRun()
	return nil
}
