package external

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/example/easel/internal/imageio"
	"github.com/example/easel/internal/pixbuf"
)

// ExposureMerger merges bracketed exposures assuming a linear camera
// response, then applies a global tonemap operator.
type ExposureMerger struct {
	// Load reads one exposure; nil uses imageio.Load.
	Load func(path string) (*pixbuf.Buffer, error)
}

var _ HDRMerger = ExposureMerger{}

// radiance is a floating point RGB image.
type radiance struct {
	w, h int
	rgb  []float64
}

func (m ExposureMerger) Merge(ctx context.Context, paths []string, times []float32, tm Tonemap) (*pixbuf.Buffer, error) {
	if len(paths) == 0 {
		return nil, errors.New("hdr: no exposures")
	}
	if len(times) != len(paths) {
		return nil, fmt.Errorf("hdr: %d exposures but %d exposure times", len(paths), len(times))
	}
	for i, t := range times {
		if !(t > 0) {
			return nil, fmt.Errorf("hdr: exposure time %d is %g, must be positive", i, t)
		}
	}
	load := m.Load
	if load == nil {
		load = imageio.Load
	}
	imgs := make([]*pixbuf.Buffer, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b, err := load(p)
			if err != nil {
				return fmt.Errorf("hdr: exposure %d: %w", i, err)
			}
			imgs[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, b := range imgs[1:] {
		if !b.SameSize(imgs[0]) {
			return nil, fmt.Errorf("hdr: %s is %dx%d, %s is %dx%d", paths[i+1], b.Width(), b.Height(), paths[0], imgs[0].Width(), imgs[0].Height())
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	glog.Infof("hdr: merging %d exposures (%dx%d) with %v", len(imgs), imgs[0].Width(), imgs[0].Height(), tm)
	rad := mergeRadiance(imgs, times)
	return tonemap(rad, tm)
}

// hat weights mid-tones over clipped shadows and highlights.
func hat(z uint8) float64 {
	if z <= 127 {
		return float64(z) + 1
	}
	return 256 - float64(z)
}

func mergeRadiance(imgs []*pixbuf.Buffer, times []float32) *radiance {
	w, h := imgs[0].Width(), imgs[0].Height()
	r := &radiance{w: w, h: h, rgb: make([]float64, w*h*3)}
	for i := 0; i < w*h; i++ {
		for c := 0; c < 3; c++ {
			var num, den float64
			for k, img := range imgs {
				z := img.RGBA().Pix[i*4+c]
				wt := hat(z)
				num += wt * (float64(z) / 255) / float64(times[k])
				den += wt
			}
			r.rgb[i*3+c] = num / den
		}
	}
	return r
}

const eps = 1e-6

func (r *radiance) normalize() {
	max := 0.0
	for _, v := range r.rgb {
		if v > max {
			max = v
		}
	}
	if max <= 0 {
		return
	}
	for i := range r.rgb {
		r.rgb[i] /= max
	}
}

func (r *radiance) luminance() []float64 {
	out := make([]float64, r.w*r.h)
	for i := range out {
		p := r.rgb[i*3 : i*3+3]
		out[i] = 0.299*p[0] + 0.587*p[1] + 0.114*p[2]
	}
	return out
}

// mapLuminance rescales every pixel from lum to newLum, keeping hue and
// raising the chroma ratio to saturation.
func (r *radiance) mapLuminance(lum, newLum []float64, saturation float64) {
	for i := range lum {
		for c := 0; c < 3; c++ {
			v := r.rgb[i*3+c] / (lum[i] + eps)
			r.rgb[i*3+c] = math.Pow(v, saturation) * newLum[i]
		}
	}
}

func (r *radiance) gamma(g float64) {
	if g == 1 {
		return
	}
	for i, v := range r.rgb {
		if v > 0 {
			r.rgb[i] = math.Pow(v, 1/g)
		}
	}
}

func (r *radiance) toBuffer(scale float64) *pixbuf.Buffer {
	out := pixbuf.MustNew(r.w, r.h)
	pix := out.RGBA().Pix
	for i := 0; i < r.w*r.h; i++ {
		for c := 0; c < 3; c++ {
			v := r.rgb[i*3+c] * scale * 255
			if math.IsNaN(v) || v < 0 {
				v = 0
			}
			if v > 255 {
				v = 255
			}
			pix[i*4+c] = uint8(v + 0.5)
		}
		pix[i*4+3] = 255
	}
	return out
}

func tonemap(r *radiance, tm Tonemap) (*pixbuf.Buffer, error) {
	switch tm {
	case Drago:
		drago(r, 1.0, 0.7, 0.85)
		return r.toBuffer(3), nil
	case Reinhard:
		reinhard(r, 1.5, 0, 0, 0)
		return r.toBuffer(1), nil
	case Mantiuk:
		mantiuk(r, 2.2, 0.85, 1.2)
		return r.toBuffer(3), nil
	}
	return nil, fmt.Errorf("hdr: unknown tonemap %v", tm)
}

func drago(r *radiance, gamma, saturation, bias float64) {
	r.normalize()
	gray := r.luminance()
	logSum := 0.0
	for _, v := range gray {
		logSum += math.Log(v + eps)
	}
	mean := math.Exp(logSum / float64(len(gray)))
	max := 0.0
	for i := range gray {
		gray[i] /= mean
		if gray[i] > max {
			max = gray[i]
		}
	}
	exp := math.Log(bias) / math.Log(0.5)
	mapped := make([]float64, len(gray))
	for i, v := range gray {
		div := math.Log(2 + 8*math.Pow(v/max, exp))
		mapped[i] = math.Log(v+1) / div
	}
	r.mapLuminance(gray, mapped, saturation)
	r.normalize()
	r.gamma(gamma)
}

func reinhard(r *radiance, gamma, intensity, lightAdapt, colorAdapt float64) {
	r.normalize()
	gray := r.luminance()
	logMean, minLog, maxLog := 0.0, math.Inf(1), math.Inf(-1)
	grayMean := 0.0
	var chanMean [3]float64
	for i, v := range gray {
		l := math.Log(v + eps)
		logMean += l
		minLog = math.Min(minLog, l)
		maxLog = math.Max(maxLog, l)
		grayMean += v
		for c := 0; c < 3; c++ {
			chanMean[c] += r.rgb[i*3+c]
		}
	}
	n := float64(len(gray))
	logMean /= n
	grayMean /= n
	key := 0.5
	if maxLog > minLog {
		key = (maxLog - logMean) / (maxLog - minLog)
	}
	mapKey := 0.3 + 0.7*math.Pow(key, 1.4)
	intensity = math.Exp(-intensity)
	for i, l := range gray {
		for c := 0; c < 3; c++ {
			v := r.rgb[i*3+c]
			global := colorAdapt*chanMean[c]/n + (1-colorAdapt)*grayMean
			adapt := colorAdapt*v + (1-colorAdapt)*l
			adapt = lightAdapt*adapt + (1-lightAdapt)*global
			adapt = math.Pow(intensity*adapt, mapKey)
			r.rgb[i*3+c] = v / (adapt + v + eps)
		}
	}
	r.normalize()
	r.gamma(gamma)
}

// mantiuk compresses log-luminance contrast by scale around its mean. It is
// the global part of the contrast-domain operator.
func mantiuk(r *radiance, gamma, scale, saturation float64) {
	r.normalize()
	gray := r.luminance()
	mean := 0.0
	logs := make([]float64, len(gray))
	for i, v := range gray {
		logs[i] = math.Log10(v + eps)
		mean += logs[i]
	}
	mean /= float64(len(gray))
	mapped := make([]float64, len(gray))
	for i, l := range logs {
		mapped[i] = math.Pow(10, scale*(l-mean))
	}
	r.mapLuminance(gray, mapped, saturation)
	r.normalize()
	r.gamma(gamma)
}
