package classifier

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"

	onnxrt "github.com/yalue/onnxruntime_go"

	"github.com/verdantis/leafscan/internal/preprocess"
	"github.com/verdantis/leafscan/internal/tensor"
)

// ONNX executes a classification model through ONNX Runtime.
type ONNX struct {
	cfg        Config
	session    *onnxrt.DynamicAdvancedSession
	inputInfo  onnxrt.InputOutputInfo
	outputInfo onnxrt.InputOutputInfo
}

// NewONNX loads the model at cfg.ModelPath and prepares a session.
func NewONNX(cfg Config) (*ONNX, error) {
	if err := validateModelPath(cfg.ModelPath); err != nil {
		return nil, err
	}
	if err := initializeEnvironment(); err != nil {
		return nil, err
	}

	inputs, outputs, err := onnxrt.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("io info: %w", err)
	}
	in, out, err := validateModelIO(inputs, outputs)
	if err != nil {
		return nil, err
	}

	opts, err := onnxrt.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session opts: %w", err)
	}
	defer func() {
		if err := opts.Destroy(); err != nil {
			fmt.Fprintf(os.Stderr, "Error destroying session options: %v\n", err)
		}
	}()
	if cfg.NumThreads > 0 {
		_ = opts.SetIntraOpNumThreads(cfg.NumThreads)
	}

	sess, err := onnxrt.NewDynamicAdvancedSession(cfg.ModelPath, []string{in.Name}, []string{out.Name}, opts)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	c := &ONNX{cfg: cfg, session: sess, inputInfo: in, outputInfo: out}
	if cfg.EnableWarmup {
		if err := c.Warmup(); err != nil {
			c.Close()
			return nil, fmt.Errorf("warmup: %w", err)
		}
	}
	return c, nil
}

// Run executes the model on a single NHWC image tensor and returns a copy of
// the raw output vector. No softmax is applied; the probability semantics
// are whatever the exported model produces.
func (c *ONNX) Run(t tensor.Image) ([]float32, error) {
	if c.session == nil {
		return nil, errors.New("classifier session closed")
	}
	if err := tensor.Verify(t); err != nil {
		return nil, err
	}

	input, err := onnxrt.NewTensor(onnxrt.NewShape(t.Shape...), t.Data)
	if err != nil {
		return nil, fmt.Errorf("tensor: %w", err)
	}
	defer func() {
		if err := input.Destroy(); err != nil {
			fmt.Fprintf(os.Stderr, "Error destroying input tensor: %v\n", err)
		}
	}()

	outputs := []onnxrt.Value{nil}
	if err := c.session.Run([]onnxrt.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				if err := o.Destroy(); err != nil {
					fmt.Fprintf(os.Stderr, "Error destroying output tensor: %v\n", err)
				}
			}
		}
	}()

	return extractProbabilities(outputs)
}

// Close releases the ONNX session.
func (c *ONNX) Close() error {
	if c.session != nil {
		if err := c.session.Destroy(); err != nil {
			return fmt.Errorf("destroy session: %w", err)
		}
		c.session = nil
	}
	return nil
}

// Warmup runs a dummy inference to initialize internal session state.
func (c *ONNX) Warmup() error {
	size := c.cfg.InputSize
	if size <= 0 {
		size = preprocess.InputSize
	}
	dummy := image.NewRGBA(image.Rect(0, 0, size, size))
	t, err := preprocess.ToTensor(dummy)
	if err != nil {
		return err
	}
	_, err = c.Run(t)
	return err
}

func validateModelPath(modelPath string) error {
	if modelPath == "" {
		return errors.New("empty model path")
	}
	if _, err := os.Stat(modelPath); err != nil {
		return err
	}
	return nil
}

func validateModelIO(inputs, outputs []onnxrt.InputOutputInfo) (onnxrt.InputOutputInfo, onnxrt.InputOutputInfo, error) {
	if len(inputs) != 1 || len(outputs) != 1 {
		return onnxrt.InputOutputInfo{}, onnxrt.InputOutputInfo{},
			fmt.Errorf("unexpected io (in:%d out:%d)", len(inputs), len(outputs))
	}
	in := inputs[0]
	out := outputs[0]
	if len(in.Dimensions) != 4 {
		return onnxrt.InputOutputInfo{}, onnxrt.InputOutputInfo{},
			fmt.Errorf("expected 4D input, got %dD", len(in.Dimensions))
	}
	return in, out, nil
}

// extractProbabilities copies the first output tensor's data. The model's
// output is [1, numLabels]; anything else is rejected here rather than
// letting a bad shape leak into ranking.
func extractProbabilities(outputs []onnxrt.Value) ([]float32, error) {
	t, ok := outputs[0].(*onnxrt.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output type %T", outputs[0])
	}
	shape := t.GetShape()
	if len(shape) != 2 || shape[0] != 1 || shape[1] < 1 {
		return nil, fmt.Errorf("unexpected output shape %v", shape)
	}
	data := t.GetData()
	probs := make([]float32, len(data))
	copy(probs, data)
	return probs, nil
}

func initializeEnvironment() error {
	if err := setSharedLibraryPath(); err != nil {
		return fmt.Errorf("onnx lib path: %w", err)
	}
	if !onnxrt.IsInitialized() {
		if err := onnxrt.InitializeEnvironment(); err != nil {
			return fmt.Errorf("init onnx: %w", err)
		}
	}
	return nil
}

func sharedLibraryName() (string, error) {
	switch runtime.GOOS {
	case "linux":
		return "libonnxruntime.so", nil
	case "darwin":
		return "libonnxruntime.dylib", nil
	case "windows":
		return "onnxruntime.dll", nil
	default:
		return "", fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
}

// setSharedLibraryPath locates the ONNX Runtime shared library, preferring
// system installs over a project-local onnxruntime/lib directory.
func setSharedLibraryPath() error {
	system := []string{
		"/usr/local/lib/libonnxruntime.so",
		"/usr/lib/libonnxruntime.so",
		"/opt/onnxruntime/cpu/lib/libonnxruntime.so",
	}
	for _, p := range system {
		if _, err := os.Stat(p); err == nil {
			onnxrt.SetSharedLibraryPath(p)
			return nil
		}
	}

	root, err := findProjectRoot()
	if err != nil {
		return err
	}
	libName, err := sharedLibraryName()
	if err != nil {
		return err
	}
	p := filepath.Join(root, "onnxruntime", "lib", libName)
	if _, err := os.Stat(p); err != nil {
		return fmt.Errorf("ONNX Runtime library not found at %s", p)
	}
	onnxrt.SetSharedLibraryPath(p)
	return nil
}

func findProjectRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	root := cwd
	for {
		if _, err := os.Stat(filepath.Join(root, "go.mod")); err == nil {
			return root, nil
		}
		parent := filepath.Dir(root)
		if parent == root {
			return "", errors.New("could not find project root")
		}
		root = parent
	}
}
