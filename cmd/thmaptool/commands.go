package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"solar-annotator/internal/app"
	"solar-annotator/internal/boundary"
	"solar-annotator/internal/config"
	"solar-annotator/internal/imageset"
	"solar-annotator/internal/labels"
	"solar-annotator/internal/render"
	"solar-annotator/internal/thmap"
	"solar-annotator/pkg/colorutil"

	xdraw "golang.org/x/image/draw"
	"gopkg.in/yaml.v3"
)

func newFlagSet(name string, stdout io.Writer) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stdout)
	cfgPath := fs.String("config", "", "class configuration (default built-in)")
	return fs, cfgPath
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// parsePoint reads "x,y".
func parsePoint(s string) (int, int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("point %q: want x,y", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("point %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("point %q: %w", s, err)
	}
	return x, y, nil
}

// parseSize reads "WxH".
func parseSize(s string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q: want WxH", s)
	}
	width, err1 := strconv.Atoi(w)
	height, err2 := strconv.Atoi(h)
	if err1 != nil || err2 != nil || width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("size %q: want positive WxH", s)
	}
	return width, height, nil
}

func oneArg(fs *flag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		return "", fmt.Errorf("expected one map file, got %d arguments", fs.NArg())
	}
	return fs.Arg(0), nil
}

// openState loads a document into a session after checking its labels
// against the configuration.
func openState(cfgPath, path string) (*app.State, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, err
	}
	state := app.NewState(cfg)
	if err := state.OpenDocument(path); err != nil {
		return nil, err
	}
	return state, nil
}

func runInfo(args []string, stdout io.Writer) error {
	fs, cfgPath := newFlagSet("info", stdout)
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := oneArg(fs)
	if err != nil {
		return err
	}
	doc, err := thmap.Load(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "File:     %s\n", path)
	fmt.Fprintf(stdout, "Size:     %dx%d\n", doc.Width(), doc.Height())
	if t, err := doc.ObservedAt(); err == nil {
		fmt.Fprintf(stdout, "DATE-OBS: %s\n", thmap.FormatDateObs(t))
	} else {
		fmt.Fprintf(stdout, "DATE-OBS: (%v)\n", err)
	}

	hist := doc.Raster().Histogram()
	total := doc.Width() * doc.Height()
	fmt.Fprintln(stdout, "Classes:")
	fmt.Fprintf(stdout, "  %3d %-22s %9d %6.2f%%\n", labels.Unlabeled, labels.UnlabeledName,
		hist[labels.Unlabeled], percent(hist[labels.Unlabeled], total))
	for _, e := range doc.Mapping().Entries() {
		fmt.Fprintf(stdout, "  %3d %-22s %9d %6.2f%%\n", e.Code, e.Name, hist[e.Code], percent(hist[e.Code], total))
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	if diff := cfg.Mapping().Diff(doc.Mapping()); len(diff) > 0 {
		fmt.Fprintln(stdout, "Differs from configuration:")
		for _, d := range diff {
			fmt.Fprintf(stdout, "  %s\n", d)
		}
	}
	return nil
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}

func runNew(args []string, stdout io.Writer) error {
	fs, cfgPath := newFlagSet("new", stdout)
	size := fs.String("size", "", "map size, WxH")
	date := fs.String("date", "", "DATE-OBS (default now)")
	out := fs.String("o", "", "output file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return errors.New("-o is required")
	}
	w, h, err := parseSize(*size)
	if err != nil {
		return err
	}
	var observed time.Time
	if *date != "" {
		if observed, err = thmap.ParseDateObs(*date); err != nil {
			return err
		}
	}

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}
	state := app.NewState(cfg)
	if err := state.NewDocument(w, h, observed); err != nil {
		return err
	}
	if err := state.SaveAs(*out); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %dx%d map to %s\n", w, h, *out)
	return nil
}

func runTemplate(args []string, stdout io.Writer) error {
	fs, cfgPath := newFlagSet("template", stdout)
	dir := fs.String("dir", "", "observation directory named by its timestamp")
	fitsPath := fs.String("fits", "", "single channel FITS file")
	out := fs.String("o", "", "output file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return errors.New("-o is required")
	}
	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		return err
	}

	var set *imageset.ImageSet
	switch {
	case *dir != "" && *fitsPath != "":
		return errors.New("use only one of -dir and -fits")
	case *dir != "":
		set, err = imageset.LoadObservationDir(context.Background(), *dir, cfg.Retrieval.Channels)
	case *fitsPath != "":
		set, err = singleChannelSet(*fitsPath, cfg.Retrieval.PreviewChannel)
	default:
		return errors.New("one of -dir and -fits is required")
	}
	if err != nil {
		return err
	}

	state := app.NewState(cfg)
	if err := state.NewTemplate(set); err != nil {
		return err
	}
	if err := state.SaveAs(*out); err != nil {
		return err
	}
	w, h := state.Size()
	fmt.Fprintf(stdout, "Wrote %dx%d template to %s\n", w, h, *out)
	return nil
}

// singleChannelSet wraps one FITS file as an image set observed at its
// DATE-OBS.
func singleChannelSet(path, name string) (*imageset.ImageSet, error) {
	ch, err := imageset.LoadChannel(path, name)
	if err != nil {
		return nil, err
	}
	observed, err := ch.Header.DateObs()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	set := imageset.New(observed)
	set.Add(ch)
	return set, nil
}

func runRelabel(args []string, stdout io.Writer) error {
	fs, cfgPath := newFlagSet("relabel", stdout)
	at := fs.String("at", "", "seed pixel, x,y")
	label := fs.String("label", "", "class name, or unlabeled")
	out := fs.String("o", "", "output file (default overwrite input)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := oneArg(fs)
	if err != nil {
		return err
	}
	x, y, err := parsePoint(*at)
	if err != nil {
		return err
	}
	state, err := openState(*cfgPath, path)
	if err != nil {
		return err
	}

	code := labels.Unlabeled
	if *label != labels.UnlabeledName {
		c, ok := state.Config().Mapping().Code(*label)
		if !ok {
			return fmt.Errorf("unknown class %q", *label)
		}
		code = c
	}
	if err := state.SetActiveLabel(code); err != nil {
		return err
	}
	ok, err := state.RelabelAt(x, y)
	if err != nil {
		return err
	}
	if !ok {
		w, h := state.Size()
		return fmt.Errorf("(%d, %d) is outside the %dx%d map", x, y, w, h)
	}

	target := path
	if *out != "" {
		target = *out
	}
	if err := state.SaveAs(target); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Relabeled region at (%d, %d) as %s, wrote %s\n", x, y, *label, target)
	return nil
}

// outlineDoc is the YAML form of a traced outline.
type outlineDoc struct {
	Seed      [2]int     `yaml:"seed"`
	Method    string     `yaml:"method"`
	Primary   [][2]int   `yaml:"primary"`
	Secondary [][][2]int `yaml:"secondary,omitempty"`
}

func pathPairs(p boundary.Path) [][2]int {
	out := make([][2]int, len(p))
	for i, pt := range p {
		out[i] = [2]int{pt.X, pt.Y}
	}
	return out
}

func runTrace(args []string, stdout io.Writer) error {
	fs, cfgPath := newFlagSet("trace", stdout)
	at := fs.String("at", "", "seed pixel, x,y")
	method := fs.String("method", "", "greedy or contour (default from config)")
	epsilon := fs.Float64("simplify", 0, "Douglas-Peucker tolerance in pixels, 0 to keep every point")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := oneArg(fs)
	if err != nil {
		return err
	}
	x, y, err := parsePoint(*at)
	if err != nil {
		return err
	}
	state, err := openState(*cfgPath, path)
	if err != nil {
		return err
	}
	m := state.Config().Boundary.Method
	if *method != "" {
		if *method != boundary.MethodGreedy && *method != boundary.MethodContour {
			return fmt.Errorf("unknown method %q", *method)
		}
		m = *method
		state.SetTracer(boundary.New(m, state.Config().TracerParams()))
	}

	outline, ok, err := state.TraceAt(x, y)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("(%d, %d) is outside the map", x, y)
	}
	if *epsilon > 0 {
		outline = boundary.SimplifyOutline(outline, *epsilon)
	}

	doc := outlineDoc{Seed: [2]int{x, y}, Method: m, Primary: pathPairs(outline.Primary)}
	for _, frag := range outline.Secondary {
		doc.Secondary = append(doc.Secondary, pathPairs(frag))
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = stdout.Write(data)
	return err
}

func runRender(args []string, stdout io.Writer) error {
	fs, cfgPath := newFlagSet("render", stdout)
	out := fs.String("o", "", "output image, .png or .tiff")
	previewDir := fs.String("preview", "", "observation directory to draw the map over")
	mode := fs.String("mode", render.PreviewChannel, "preview mode: channel or three-color")
	opacity := fs.Float64("opacity", 0.4, "map opacity over the preview")
	legend := fs.Bool("legend", false, "append a class legend")
	at := fs.String("at", "", "also draw the outline of the region at x,y")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return errors.New("-o is required")
	}
	path, err := oneArg(fs)
	if err != nil {
		return err
	}
	state, err := openState(*cfgPath, path)
	if err != nil {
		return err
	}
	cfg := state.Config()

	scene := render.Scene{
		Raster:     state.Raster(),
		Palette:    render.TablePalette{Table: cfg.ColorTable(), Fallback: cfg.Color(labels.Unlabeled)},
		MapOpacity: *opacity,
	}
	if *previewDir != "" {
		set, err := imageset.LoadObservationDir(context.Background(), *previewDir, cfg.Retrieval.Channels)
		if err != nil {
			return err
		}
		channels := append([]string(nil), cfg.Retrieval.Channels...)
		sort.Sort(sort.Reverse(sort.StringSlice(channels)))
		opts := render.PreviewOptions{Mode: *mode, Channel: cfg.Retrieval.PreviewChannel, Stretch: imageset.DefaultStretch()}
		copy(opts.RGB[:], channels)
		bg, err := render.Preview(set, opts)
		if err != nil {
			return err
		}
		if bg != nil {
			scene.Background = bg
		}
	}
	img := scene.Render()

	if *at != "" {
		x, y, err := parsePoint(*at)
		if err != nil {
			return err
		}
		outline, ok, err := state.TraceAt(x, y)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("(%d, %d) is outside the map", x, y)
		}
		render.DrawOutline(img, outline, render.OutlineStyle{
			Primary: colorutil.Cyan, Secondary: colorutil.Magenta, Thickness: 1,
		}, 1)
	}

	if *legend {
		img = withLegend(img, render.Legend(cfg.ClassList(), scene.Palette, 2))
	}
	if err := render.WriteFile(*out, img); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s\n", *out)
	return nil
}

// withLegend places legend to the right of img, top aligned, on white.
func withLegend(img, legend *image.RGBA) *image.RGBA {
	ib, lb := img.Bounds(), legend.Bounds()
	h := ib.Dy()
	if lb.Dy() > h {
		h = lb.Dy()
	}
	out := image.NewRGBA(image.Rect(0, 0, ib.Dx()+lb.Dx(), h))
	xdraw.Draw(out, out.Bounds(), image.NewUniform(colorutil.White), image.Point{}, xdraw.Src)
	xdraw.Draw(out, image.Rect(0, 0, ib.Dx(), ib.Dy()), img, ib.Min, xdraw.Src)
	xdraw.Draw(out, image.Rect(ib.Dx(), 0, ib.Dx()+lb.Dx(), lb.Dy()), legend, lb.Min, xdraw.Src)
	return out
}
