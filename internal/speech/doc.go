// Package speech narrates the analysis summary as MP3 audio.
package speech
