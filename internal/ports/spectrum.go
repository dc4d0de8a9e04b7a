package ports

// SpectrumFrameFunc receives one FFT frame from a running source. The
// byte layout follows the classic visualizer convention: byte 0 is the
// DC real component, byte 1 the Nyquist real component, then
// real/imaginary pairs for ascending frequency bins. The slice is only valid for the duration of the call.
type SpectrumFrameFunc func(fft []byte)

// SpectrumSource produces FFT frames for the visualizer. Sources run
// their own goroutines and push frames through the emit callback until
// stopped.
type SpectrumSource interface {
	// Name identifies the source in logs and events.
	Name() string

	// Start begins frame production. It returns domain.ErrSourceRunning
	// if the source is already running.
	Start(emit SpectrumFrameFunc) error

	// Stop halts frame production and releases backend resources. It
	// returns domain.ErrSourceStopped if the source is not running.
	Stop() error
}
