package dataset

import "fmt"

// ScalerFit selects which returns the scaler observes.
type ScalerFit string

const (
	// FitFull fits on the entire return series, train and test combined.
	FitFull ScalerFit = "full"
	// FitTrain fits only on the returns visible to the training windows.
	FitTrain ScalerFit = "train"
)

// Dataset is the windowed, scaled and split form of one price series.
type Dataset struct {
	TrainX [][]float64
	TrainY []float64
	TestX  [][]float64
	TestY  []float64

	Scaler    MinMaxScaler
	Prices    []float64
	Returns   []float64
	SeqLength int
	TrainLen  int
}

// WindowCount is the total number of windows before the split.
func (d *Dataset) WindowCount() int { return len(d.TrainX) + len(d.TestX) }

// BaseTestIndex is the raw price index preceding the first test target.
func (d *Dataset) BaseTestIndex() int { return d.TrainLen + d.SeqLength }

// BuildWindows slices scaled into overlapping windows of seqLength values, each
// labelled with the value that follows it. Windows alias scaled.
func BuildWindows(scaled []float64, seqLength int) ([][]float64, []float64) {
	n := len(scaled) - seqLength
	if n <= 0 {
		return nil, nil
	}
	xs := make([][]float64, n)
	ys := make([]float64, n)
	for i := 0; i < n; i++ {
		xs[i] = scaled[i : i+seqLength : i+seqLength]
		ys[i] = scaled[i+seqLength]
	}
	return xs, ys
}

// SplitIndex returns floor(windowCount * trainSplit).
func SplitIndex(windowCount int, trainSplit float64) int {
	return int(float64(windowCount) * trainSplit)
}

// Prepare runs the return transform, scaling, windowing and temporal split.
func Prepare(prices []float64, seqLength int, trainSplit float64, fit ScalerFit) (*Dataset, error) {
	if seqLength < 1 {
		return nil, fmt.Errorf("seq_length must be positive, got %d", seqLength)
	}
	if trainSplit <= 0 || trainSplit >= 1 {
		return nil, fmt.Errorf("train_split must be in (0, 1), got %v", trainSplit)
	}
	returns, err := LogReturns(prices)
	if err != nil {
		return nil, err
	}

	windowCount := len(returns) - seqLength
	if windowCount <= 0 {
		return nil, fmt.Errorf("%w: %d prices cannot fill a window of %d returns", ErrInsufficientHistory, len(prices), seqLength)
	}
	trainLen := SplitIndex(windowCount, trainSplit)
	if trainLen == 0 || trainLen == windowCount {
		return nil, fmt.Errorf("%w: %d windows leave an empty split at %v", ErrInsufficientHistory, windowCount, trainSplit)
	}

	var scaler MinMaxScaler
	switch fit {
	case FitTrain:
		scaler = FitMinMax(returns[:trainLen+seqLength], -1, 1)
	case FitFull, "":
		scaler = FitMinMax(returns, -1, 1)
	default:
		return nil, fmt.Errorf("unknown scaler fit %q", fit)
	}

	xs, ys := BuildWindows(scaler.TransformAll(returns), seqLength)
	return &Dataset{
		TrainX:    xs[:trainLen],
		TrainY:    ys[:trainLen],
		TestX:     xs[trainLen:],
		TestY:     ys[trainLen:],
		Scaler:    scaler,
		Prices:    prices,
		Returns:   returns,
		SeqLength: seqLength,
		TrainLen:  trainLen,
	}, nil
}
