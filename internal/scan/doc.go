// Package scan finds the frame of a video with the deepest joint flexion.
//
// Scanner samples every Nth frame by absolute index, Scorer measures and
// annotates each sampled frame, and the frame with the strictly lowest angle
// is kept as an owned copy.
package scan
