package stress

import (
	"io"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Report summarizes a run.
type Report struct {
	Requests int `json:"requests"`
	Allocs   int `json:"allocs"`
	Reallocs int `json:"reallocs"`
	Frees    int `json:"frees"`

	// PeakLiveBytes is the largest total of requested payload bytes live at
	// the end of any step.
	PeakLiveBytes int `json:"peak_live_bytes"`
	LiveBytes     int `json:"live_bytes"`

	// HeapBytes is the allocator's heap size when the run ended.
	HeapBytes int `json:"heap_bytes"`
}

func (r Report) finish(a Allocator) Report {
	r.HeapBytes = a.HeapSize()
	return r
}

// Utilization is peak live payload over heap size, in [0, 1].
func (r Report) Utilization() float64 {
	if r.HeapBytes == 0 {
		return 0
	}
	return float64(r.PeakLiveBytes) / float64(r.HeapBytes)
}

// Print writes a human-readable summary with numbers formatted for tag.
func (r Report) Print(w io.Writer, tag language.Tag) error {
	p := message.NewPrinter(tag)
	_, err := p.Fprintf(w,
		"requests:      %d\n"+
			"allocations:   %d\n"+
			"reallocations: %d\n"+
			"frees:         %d\n"+
			"peak live:     %d bytes\n"+
			"heap size:     %d bytes\n"+
			"utilization:   %.1f%%\n",
		r.Requests, r.Allocs, r.Reallocs, r.Frees,
		r.PeakLiveBytes, r.HeapBytes, 100*r.Utilization())
	return err
}
