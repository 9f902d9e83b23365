// internal/inference/onnx.go
package inference

import (
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// The exported graphs take a single "observation" input and expose the
// policy head as "action_logits" (a value head also exists but is unused
// at play time).
const (
	onnxInputName  = "observation"
	onnxOutputName = "action_logits"
)

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// initRuntime initializes the onnxruntime environment once per process.
// ONNXRUNTIME_SHARED_LIBRARY_PATH overrides the shared library location.
func initRuntime() error {
	ortInitOnce.Do(func() {
		if path := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); path != "" {
			ort.SetSharedLibraryPath(path)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// onnxScorer runs a cached onnxruntime session. Sessions are not safe for
// concurrent Run calls, hence the mutex.
type onnxScorer struct {
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
	obsDim  int
	actDim  int
}

// newOnnxScorer opens an inference session for the artifact at modelPath.
func newOnnxScorer(modelPath string, metadata Metadata) (Scorer, error) {
	if err := initRuntime(); err != nil {
		return nil, fmt.Errorf("initialize onnxruntime: %w", err)
	}
	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{onnxInputName}, []string{onnxOutputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("open onnx session: %w", err)
	}
	return &onnxScorer{
		session: session,
		obsDim:  metadata.ObservationDim,
		actDim:  metadata.ActionDim,
	}, nil
}

func (s *onnxScorer) Score(observation []float32) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(observation) != s.obsDim {
		return nil, fmt.Errorf("observation length %d, session expects %d", len(observation), s.obsDim)
	}

	input, err := ort.NewTensor(ort.NewShape(1, int64(s.obsDim)), observation)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	if err := s.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("onnx inference: %w", err)
	}
	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected onnx output type %T", outputs[0])
	}
	defer out.Destroy()

	logits := append([]float32(nil), out.GetData()...)
	if len(logits) != s.actDim {
		return nil, fmt.Errorf("onnx returned %d logits, session expects %d", len(logits), s.actDim)
	}
	return logits, nil
}
