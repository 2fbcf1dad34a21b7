package filter

import (
	"fmt"

	"github.com/example/easel/internal/pixbuf"
)

// MaxKernel is the largest accepted kernel side.
const MaxKernel = 99

func validKernel(k int) error {
	if k < 1 || k > MaxKernel || k%2 == 0 {
		return fmt.Errorf("kernel size %d must be odd and within 1..%d: %w", k, MaxKernel, ErrInvalidParameter)
	}
	return nil
}

// BoxBlur is the K x K mean with replicated borders. Each channel is the
// exact neighbourhood sum divided once, truncating, by K*K. Alpha is kept.
type BoxBlur struct {
	Size int
}

func (f BoxBlur) Name() string { return fmt.Sprintf("blur:%d", f.Size) }

func (f BoxBlur) Validate() error { return validKernel(f.Size) }

func (f BoxBlur) Apply(dst, src *pixbuf.Buffer) error {
	if err := f.Validate(); err != nil {
		return err
	}
	w, h := src.Width(), src.Height()
	r := f.Size / 2
	area := f.Size * f.Size
	s := src.RGBA()
	// Horizontal pass keeps raw sums so the only division happens once.
	rows := make([]int, w*h*3)
	prefix := make([]int, w+1)
	for y := 0; y < h; y++ {
		line := s.Pix[y*s.Stride : y*s.Stride+w*4]
		for c := 0; c < 3; c++ {
			for x := 0; x < w; x++ {
				prefix[x+1] = prefix[x] + int(line[x*4+c])
			}
			first, last := int(line[c]), int(line[(w-1)*4+c])
			for x := 0; x < w; x++ {
				rows[(y*w+x)*3+c] = windowSum(prefix, x, r, w, first, last)
			}
		}
	}
	d := dst.RGBA()
	col := make([]int, h+1)
	for x := 0; x < w; x++ {
		for c := 0; c < 3; c++ {
			for y := 0; y < h; y++ {
				col[y+1] = col[y] + rows[(y*w+x)*3+c]
			}
			first, last := rows[x*3+c], rows[((h-1)*w+x)*3+c]
			for y := 0; y < h; y++ {
				sum := windowSum(col, y, r, h, first, last)
				d.Pix[y*d.Stride+x*4+c] = uint8(sum / area)
			}
		}
		for y := 0; y < h; y++ {
			d.Pix[y*d.Stride+x*4+3] = s.Pix[y*s.Stride+x*4+3]
		}
	}
	return nil
}

// windowSum returns the sum of v[i-r..i+r] where indices outside 0..n-1
// repeat the nearest edge value. prefix holds the running sums of v.
func windowSum(prefix []int, i, r, n, first, last int) int {
	lo, hi := i-r, i+r
	sum := 0
	if lo < 0 {
		sum += -lo * first
		lo = 0
	}
	if hi > n-1 {
		sum += (hi - (n - 1)) * last
		hi = n - 1
	}
	if lo <= hi {
		sum += prefix[hi+1] - prefix[lo]
	}
	return sum
}

// Convolution applies a square integer kernel with replicated borders:
// out = clamp(sum(w*p)/Divisor + Bias). Alpha is kept.
type Convolution struct {
	Kernel  []int
	Divisor int
	Bias    int
}

// NewBoxKernel returns the all-ones k x k convolution equivalent to BoxBlur{k}.
func NewBoxKernel(k int) Convolution {
	kern := make([]int, k*k)
	for i := range kern {
		kern[i] = 1
	}
	return Convolution{Kernel: kern, Divisor: k * k}
}

// Sharpen3 is the classic 3x3 sharpening kernel.
func Sharpen3() Convolution {
	return Convolution{Kernel: []int{0, -1, 0, -1, 5, -1, 0, -1, 0}, Divisor: 1}
}

func (f Convolution) side() int {
	for s := 1; s*s <= len(f.Kernel); s += 2 {
		if s*s == len(f.Kernel) {
			return s
		}
	}
	return 0
}

func (f Convolution) Name() string { return fmt.Sprintf("convolve:%d", f.side()) }

func (f Convolution) Validate() error {
	side := f.side()
	if side == 0 {
		return fmt.Errorf("kernel of %d weights is not an odd square: %w", len(f.Kernel), ErrInvalidParameter)
	}
	if side > MaxKernel {
		return validKernel(side)
	}
	return nil
}

func (f Convolution) divisor() int {
	if f.Divisor != 0 {
		return f.Divisor
	}
	sum := 0
	for _, v := range f.Kernel {
		sum += v
	}
	if sum == 0 {
		return 1
	}
	return sum
}

func (f Convolution) Apply(dst, src *pixbuf.Buffer) error {
	if err := f.Validate(); err != nil {
		return err
	}
	side := f.side()
	r := side / 2
	div := f.divisor()
	w, h := src.Width(), src.Height()
	s, d := src.RGBA(), dst.RGBA()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc [3]int
			for ky := 0; ky < side; ky++ {
				sy := clampInt(y+ky-r, 0, h-1)
				row := s.Pix[sy*s.Stride:]
				for kx := 0; kx < side; kx++ {
					wt := f.Kernel[ky*side+kx]
					if wt == 0 {
						continue
					}
					sx := clampInt(x+kx-r, 0, w-1) * 4
					acc[0] += wt * int(row[sx])
					acc[1] += wt * int(row[sx+1])
					acc[2] += wt * int(row[sx+2])
				}
			}
			o := y*d.Stride + x*4
			for c := 0; c < 3; c++ {
				d.Pix[o+c] = uint8(clampInt(acc[c]/div+f.Bias, 0, 255))
			}
			d.Pix[o+3] = s.Pix[y*s.Stride+x*4+3]
		}
	}
	return nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
