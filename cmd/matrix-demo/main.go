// Command matrix-demo drives a chained HUB75 display with a rotating
// color-wheel pattern. With -simulate it runs against the software panel
// instead of /dev/gpiomem and serves the frames to browsers and, with
// -console, to the terminal.
package main

import (
	"flag"
	"image"
	"image/color"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/extra/devices/screen"
	"periph.io/x/host/v3"

	"github.com/example/rgbmatrix/internal/colormap"
	"github.com/example/rgbmatrix/internal/config"
	"github.com/example/rgbmatrix/internal/emu"
	"github.com/example/rgbmatrix/internal/framebuffer"
	"github.com/example/rgbmatrix/internal/gpio"
	"github.com/example/rgbmatrix/internal/preview"
	"github.com/example/rgbmatrix/internal/pulser"
)

func main() {
	var (
		rows       = flag.Int("rows", 32, "panel height in pixels")
		cols       = flag.Int("cols", 32, "panel width in pixels")
		chain      = flag.Int("chain", 1, "daisy-chained panels per chain")
		parallel   = flag.Int("parallel", 1, "chains driven in parallel")
		hardware   = flag.String("hardware", "regular", "pinout: regular | adafruit-hat | adafruit-hat-pwm")
		rev1       = flag.Bool("rev1-pinout", false, "use the rev-1 Raspberry Pi pinout")
		swapGB     = flag.Bool("swap-green-blue", false, "panels with swapped green/blue wiring")
		inverse    = flag.Bool("inverse-colors", false, "panels with active-low color inputs")
		pwmBits    = flag.Int("pwm-bits", colormap.BitPlanes, "bit-planes to refresh (1..11)")
		brightness = flag.Int("brightness", 100, "brightness percent (1..100)")
		noLum      = flag.Bool("no-luminance-correct", false, "disable CIE-1931 luminance correction")
		configPath = flag.String("config", "", "path to config.yaml (optional)")
		addr       = flag.String("addr", ":8080", "preview HTTP listen address (simulate only)")
		simulate   = flag.Bool("simulate", false, "run against the software panel instead of GPIO")
		console    = flag.Bool("console", false, "render simulated frames to the terminal")
		fps        = flag.Int("fps", 30, "pattern frames per second")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})

	cfg := config.Default()
	cfg.Hardware = *hardware
	cfg.Rev1Pinout = *rev1
	cfg.SwapGreenBlue = *swapGB
	cfg.InverseColors = *inverse
	cfg.Geometry = config.Geometry{Rows: *rows, Cols: *cols, Chain: *chain, Parallel: *parallel}
	cfg.PWMBits = *pwmBits
	cfg.Brightness = *brightness
	cfg.LuminanceCorrect = !*noLum
	cfg.Simulate = *simulate
	cfg.Preview.Addr = *addr

	if *configPath != "" {
		c, err := config.Load(*configPath)
		if err != nil {
			log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
		} else {
			cfg = c
		}
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("bad configuration")
	}
	pf, err := cfg.Profile()
	if err != nil {
		log.Fatal().Err(err).Msg("bad configuration")
	}

	if _, err := host.Init(); err != nil {
		log.Fatal().Err(err).Msg("host init")
	}

	columns := cfg.Columns()
	fb, err := framebuffer.New(cfg.Geometry.Rows, columns, cfg.Geometry.Parallel, pf)
	if err != nil {
		log.Fatal().Err(err).Msg("framebuffer")
	}
	fb.SetPWMBits(cfg.PWMBits)
	fb.SetBrightness(cfg.Brightness)
	fb.SetLuminanceCorrect(cfg.LuminanceCorrect)

	// Backend selection. A failed GPIO open falls back to the software
	// panel rather than aborting, like a missing SPI port would.
	var (
		io    gpio.Writer
		panel *emu.Panel
	)
	if !cfg.Simulate {
		mem, err := gpio.NewMem()
		if err != nil {
			log.Warn().Err(err).Msg("GPIO init failed; falling back to simulation")
			cfg.Simulate = true
		} else {
			io = mem
		}
	}
	if cfg.Simulate {
		panel = emu.NewPanel(cfg.Geometry.Rows, columns, cfg.Geometry.Parallel, pf)
		io = panel
	}

	if panel != nil {
		var p pulser.PinPulser = panel
		err = framebuffer.InitWithPulser(io, cfg.Geometry.Rows, cfg.Geometry.Parallel, pf, p)
	} else {
		err = framebuffer.Init(io, cfg.Geometry.Rows, cfg.Geometry.Parallel, pf)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("display init")
	}

	var pv *preview.Server
	if panel != nil && cfg.Preview.Addr != "" {
		pv = preview.NewServer(fb.Width(), fb.Height())
		mux := http.NewServeMux()
		mux.HandleFunc("/ws", pv.HandleFramesWS)
		mux.HandleFunc("/health", pv.HandleHealth)
		srv := &http.Server{
			Addr:         cfg.Preview.Addr,
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Info().Str("addr", cfg.Preview.Addr).Msg("preview server starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("preview server crashed")
			}
		}()
	}

	var term display.Drawer
	if panel != nil && *console {
		term = screen.New(fb.Width())
	}

	log.Info().
		Int("rows", cfg.Geometry.Rows).Int("cols", columns).
		Int("parallel", cfg.Geometry.Parallel).
		Bool("simulate", panel != nil).
		Msg("display running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second / time.Duration(max(1, *fps)))
	defer ticker.Stop()
	report := time.NewTicker(5 * time.Second)
	defer report.Stop()

	start := time.Now()
	frames := 0
	for {
		select {
		case <-ticker.C:
			phase := math.Mod(time.Since(start).Seconds()/10, 1.0)
			drawWheel(fb, phase)
			if panel != nil {
				panel.ResetFrame()
			}
			fb.DumpToMatrix(io)
			frames++
			if panel != nil {
				img := panel.Image()
				if pv != nil {
					pv.BroadcastFrame(imageRGB(img))
				}
				if term != nil {
					if err := term.Draw(term.Bounds(), img, image.Point{}); err != nil {
						log.Fatal().Err(err).Msg("terminal draw")
					}
				}
			}

		case <-report.C:
			rate := physic.Frequency(float64(frames)/time.Since(start).Seconds()*1000) * physic.MilliHertz
			log.Info().Str("rate", rate.String()).Int("frames", frames).Msg("refresh")

		case s := <-quit:
			log.Info().Str("signal", s.String()).Msg("shutting down")
			fb.Clear()
			fb.DumpToMatrix(io)
			return
		}
	}
}

// drawWheel paints a rotating color wheel across the whole display.
func drawWheel(fb *framebuffer.Framebuffer, phase float64) {
	w, h := fb.Width(), fb.Height()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			u := float64(x) / float64(max(1, w-1))
			v := float64(y) / float64(max(1, h-1))
			c := colorWheel(math.Mod(u+v+phase, 1.0))
			fb.SetPixel(x, y, c.R, c.G, c.B)
		}
	}
}

func colorWheel(h float64) color.NRGBA {
	h *= 6
	switch {
	case h < 1.:
		return color.NRGBA{R: 255, G: byte(255 * h), A: 255}
	case h < 2.:
		return color.NRGBA{R: byte(255 * (2 - h)), G: 255, A: 255}
	case h < 3.:
		return color.NRGBA{G: 255, B: byte(255 * (h - 2)), A: 255}
	case h < 4.:
		return color.NRGBA{G: byte(255 * (4 - h)), B: 255, A: 255}
	case h < 5.:
		return color.NRGBA{R: byte(255 * (h - 4)), B: 255, A: 255}
	default:
		return color.NRGBA{R: 255, B: byte(255 * (6 - h)), A: 255}
	}
}

// imageRGB flattens an RGBA image to the 3-bytes-per-pixel layout the
// preview protocol carries.
func imageRGB(img *image.RGBA) []byte {
	b := img.Bounds()
	out := make([]byte, 0, b.Dx()*b.Dy()*3)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			out = append(out, c.R, c.G, c.B)
		}
	}
	return out
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
