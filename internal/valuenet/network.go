// Package valuenet implements the small convolutional value network used as
// a learned leaf evaluator.
package valuenet

import (
	"math"
	"math/rand"

	"github.com/hailam/tierchess/internal/board"
)

// Network architecture constants
const (
	Planes   = 14 // 12 piece planes, side to move, half-move clock
	Channels = 32 // convolution channels
	Hidden   = 128
	Squares  = 64
	Kernel   = 3
)

// Network holds float32 weights for:
//
//	conv3x3(14->32) relu -> conv3x3(32->32) relu -> linear(2048->128) relu -> linear(128->1) tanh
//
// A Network is read-only after construction and safe for concurrent use.
type Network struct {
	Conv1W [Channels][Planes][Kernel][Kernel]float32
	Conv1B [Channels]float32
	Conv2W [Channels][Channels][Kernel][Kernel]float32
	Conv2B [Channels]float32
	FC1W   [Hidden][Channels * Squares]float32
	FC1B   [Hidden]float32
	FC2W   [Hidden]float32
	FC2B   float32
}

// NewRandom returns a network with small uniform random weights. Useful for
// tests and for exercising the search path before a trained file exists.
func NewRandom(seed int64) *Network {
	rng := rand.New(rand.NewSource(seed))
	n := &Network{}
	fill := func(fanIn int) func() float32 {
		limit := 1 / math.Sqrt(float64(fanIn))
		return func() float32 { return float32((rng.Float64()*2 - 1) * limit) }
	}

	next := fill(Planes * Kernel * Kernel)
	for o := range n.Conv1W {
		for i := range n.Conv1W[o] {
			for y := 0; y < Kernel; y++ {
				for x := 0; x < Kernel; x++ {
					n.Conv1W[o][i][y][x] = next()
				}
			}
		}
		n.Conv1B[o] = next()
	}

	next = fill(Channels * Kernel * Kernel)
	for o := range n.Conv2W {
		for i := range n.Conv2W[o] {
			for y := 0; y < Kernel; y++ {
				for x := 0; x < Kernel; x++ {
					n.Conv2W[o][i][y][x] = next()
				}
			}
		}
		n.Conv2B[o] = next()
	}

	next = fill(Channels * Squares)
	for h := range n.FC1W {
		for i := range n.FC1W[h] {
			n.FC1W[h][i] = next()
		}
		n.FC1B[h] = next()
	}

	next = fill(Hidden)
	for h := range n.FC2W {
		n.FC2W[h] = next()
	}
	n.FC2B = next()
	return n
}

// Evaluate returns the value of pos in [-1, 1] from the side to move's
// perspective.
func (n *Network) Evaluate(pos *board.Position) float64 {
	var in Input
	Encode(pos, &in)
	return n.Forward(&in)
}

// Forward runs the network on an encoded input.
func (n *Network) Forward(in *Input) float64 {
	var h1, h2 [Channels][8][8]float32
	conv(in[:], n.Conv1W[:], n.Conv1B[:], h1[:])
	conv2(h1[:], n, h2[:])

	var out float64 = float64(n.FC2B)
	for h := 0; h < Hidden; h++ {
		sum := n.FC1B[h]
		w := &n.FC1W[h]
		idx := 0
		for c := 0; c < Channels; c++ {
			for r := 0; r < 8; r++ {
				for f := 0; f < 8; f++ {
					sum += w[idx] * h2[c][r][f]
					idx++
				}
			}
		}
		if sum > 0 {
			out += float64(sum * n.FC2W[h])
		}
	}
	return math.Tanh(out)
}

// conv applies the first 3x3 convolution (padding 1) and ReLU.
func conv(in []Plane, w [][Planes][Kernel][Kernel]float32, b []float32, out [][8][8]float32) {
	for o := range out {
		for r := 0; r < 8; r++ {
			for f := 0; f < 8; f++ {
				sum := b[o]
				for i := range in {
					for ky := 0; ky < Kernel; ky++ {
						rr := r + ky - 1
						if rr < 0 || rr > 7 {
							continue
						}
						for kx := 0; kx < Kernel; kx++ {
							ff := f + kx - 1
							if ff < 0 || ff > 7 {
								continue
							}
							sum += w[o][i][ky][kx] * in[i][rr][ff]
						}
					}
				}
				out[o][r][f] = relu(sum)
			}
		}
	}
}

// conv2 applies the second 3x3 convolution (padding 1) and ReLU.
func conv2(in [][8][8]float32, n *Network, out [][8][8]float32) {
	for o := range out {
		for r := 0; r < 8; r++ {
			for f := 0; f < 8; f++ {
				sum := n.Conv2B[o]
				for i := range in {
					for ky := 0; ky < Kernel; ky++ {
						rr := r + ky - 1
						if rr < 0 || rr > 7 {
							continue
						}
						for kx := 0; kx < Kernel; kx++ {
							ff := f + kx - 1
							if ff < 0 || ff > 7 {
								continue
							}
							sum += n.Conv2W[o][i][ky][kx] * in[i][rr][ff]
						}
					}
				}
				out[o][r][f] = relu(sum)
			}
		}
	}
}

func relu(x float32) float32 {
	if x < 0 {
		return 0
	}
	return x
}
