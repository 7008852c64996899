package model

import (
	"errors"
	"math"
)

// FaceDescriptorSize is the length of a face embedding
const FaceDescriptorSize = 128

var ErrDescriptorSize = errors.New("face descriptor must have 128 values")

// FaceDistance is the Euclidean distance between two descriptors
func FaceDistance(a, b []float64) (float64, error) {
	if len(a) != FaceDescriptorSize || len(b) != FaceDescriptorSize {
		return 0, ErrDescriptorSize
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// BestFaceDistance returns the smallest distance between sample and any enrolled descriptor
func (u *User) BestFaceDistance(sample []float64) (float64, bool) {
	best, found := math.Inf(1), false
	for _, d := range u.FaceDescriptors {
		dist, err := FaceDistance(sample, d)
		if err != nil {
			continue
		}
		if dist < best {
			best, found = dist, true
		}
	}
	return best, found
}
