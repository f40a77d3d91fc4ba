package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"

	"github.com/rtm0/narr/internal/narr"
	"github.com/rtm0/narr/internal/plots"
	"github.com/rtm0/narr/internal/render"
)

var (
	files       = flag.String("files", "", "comma-separated NARR NetCDF files, e.g. uwnd.202007.nc,vwnd.202007.nc,hgt.202007.nc. Env: NARR_FILES")
	recipe      = flag.String("recipe", "hgt", "plot to render: hgt (wind and geopotential height on a pressure level) or dpt (10 m wind and 2 m dewpoint)")
	level       = flag.Float64("level", 500, "pressure level in hPa for the hgt recipe")
	times       = flag.String("time", "", `comma-separated UTC times, e.g. "2020-07-19 18:00:00". Default: every time in the dataset`)
	out         = flag.String("out", "", "output path pattern; {recipe}, {level} and {time} are substituted and the extension selects the format. Env: NARR_OUT")
	extent      = flag.String("extent", "", "map bounds as west,east,south,north in degrees")
	cmap        = flag.String("cmap", "", "ColorBrewer colormap of the filled contours. Default: Reds for hgt, Greens for dpt")
	barbColor   = flag.String("barbColor", "", "color of the wind barbs. Default: darkblue for hgt, blue for dpt")
	levels      = flag.String("levels", "", "comma-separated contour levels. Default: automatic")
	stride      = flag.Int("stride", 2, "draw a wind barb every stride grid points")
	projection  = flag.String("proj", "platecarree", "map projection: platecarree or lambert (NARR native)")
	basemap     = flag.String("basemap", "", "comma-separated GeoJSON coastline and border files. Env: NARR_BASEMAP")
	concurrency = flag.Int("concurrency", runtime.NumCPU(), "number of figures rendered concurrently")
	dump        = flag.Bool("dump", false, "also write the plotted field next to each figure as NetCDF")
	envFile     = flag.String("env", ".env", "file with environment defaults")
)

const defaultOut = "narr_{recipe}_{time}.png"

func main() {
	flag.Parse()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Error("Could not load environment file", "file", *envFile, "err", err)
		os.Exit(1)
	}

	r := plots.Recipes[*recipe]
	if r == nil {
		logger.Error("Unknown recipe", "recipe", *recipe)
		os.Exit(1)
	}
	base, err := baseRequest()
	if err != nil {
		logger.Error("Invalid arguments", "err", err)
		os.Exit(1)
	}

	ds, err := narr.Open(splitList(orEnv(*files, "NARR_FILES"))...)
	if err != nil {
		logger.Error("Could not open NARR dataset", "err", err)
		os.Exit(1)
	}
	defer ds.Close()
	logger.Info("NARR summary", ds.Summary()...)

	tss, err := requestedTimes(ds)
	if err != nil {
		logger.Error("Invalid times", "err", err)
		os.Exit(1)
	}
	pattern := orEnv(*out, "NARR_OUT")
	if pattern == "" {
		pattern = defaultOut
	}
	logger.Info("Plotting", "recipe", r.Name, "times", len(tss), "proj", base.Projection.Name(), "out", pattern)

	tsCh := make(chan time.Time)
	progressCh := make(chan string)
	var failed atomic.Int64
	var wg sync.WaitGroup
	for range max(*concurrency, 1) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ts := range tsCh {
				req := base
				req.Time = ts
				req.Output = outputPath(pattern, r.Name, *level, ts)
				if err := plotOne(ds, r, req); err != nil {
					failed.Add(1)
					logger.Error("Could not plot", "time", ts.Format(narr.TimeLayout), "err", err)
					continue
				}
				progressCh <- req.Output
			}
		}()
	}
	done := make(chan struct{})
	go func() {
		var n int
		start := time.Now()
		for path := range progressCh {
			n++
			duration := time.Since(start).Round(time.Millisecond)
			logger.Info("progress", "saved", path, "done", fmt.Sprintf("%d/%d", n, len(tss)), "in", duration)
		}
		close(done)
	}()
	for _, ts := range tss {
		tsCh <- ts
	}
	close(tsCh)
	wg.Wait()
	close(progressCh)
	<-done

	if n := failed.Load(); n > 0 {
		logger.Error("Some figures failed", "failed", n, "total", len(tss))
		os.Exit(1)
	}
}

func plotOne(ds *narr.Dataset, r *plots.Recipe, req plots.Request) error {
	if !r.PressureLevel {
		req.Level = 0
	}
	fig, err := plots.Plot(ds, r, req)
	if err != nil {
		return err
	}
	if !*dump {
		return nil
	}
	path := strings.TrimSuffix(req.Output, filepath.Ext(req.Output)) + ".nc"
	return narr.WriteField(path, fig.Field(), ds.Grid())
}

// baseRequest builds the request fields shared by all figures.
func baseRequest() (plots.Request, error) {
	req := plots.Request{
		Level:      *level,
		Colormap:   *cmap,
		BarbColor:  *barbColor,
		BarbStride: *stride,
	}
	var err error
	if req.Extent, err = parseFloats(*extent); err != nil {
		return req, fmt.Errorf("-extent: %w", err)
	}
	if len(req.Extent) != 0 && len(req.Extent) != 4 {
		return req, fmt.Errorf("-extent: want west,east,south,north, got %q", *extent)
	}
	if req.Levels, err = parseFloats(*levels); err != nil {
		return req, fmt.Errorf("-levels: %w", err)
	}
	if req.Projection, err = render.ParseProjection(*projection); err != nil {
		return req, fmt.Errorf("-proj: %w", err)
	}
	if paths := splitList(orEnv(*basemap, "NARR_BASEMAP")); len(paths) > 0 {
		if req.Basemap, err = render.LoadBasemap(paths...); err != nil {
			return req, fmt.Errorf("-basemap: %w", err)
		}
	}
	return req, nil
}

func requestedTimes(ds *narr.Dataset) ([]time.Time, error) {
	list := splitList(*times)
	if len(list) == 0 {
		return ds.Times(), nil
	}
	tss := make([]time.Time, len(list))
	for i, s := range list {
		ts, err := narr.ParseTime(s)
		if err != nil {
			return nil, err
		}
		tss[i] = ts
	}
	return tss, nil
}
