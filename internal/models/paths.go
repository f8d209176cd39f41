package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Model asset name constants to avoid typos and ensure consistency.
const (
	// Classification models.
	ClassifierMobile = "plant_disease_mobilenet_v2.onnx"
	ClassifierServer = "plant_disease_efficientnet_b0.onnx"

	// Label resources.
	LabelsPlantVillage = "plantvillage_labels.txt"
)

// Asset type categories for the organized directory structure.
const (
	TypeClassification = "classification"
	TypeLabels         = "labels"
)

// Model variant categories.
const (
	VariantMobile = "mobile"
	VariantServer = "server"
)

// DefaultModelsDir is the models directory relative to the project root.
const DefaultModelsDir = "models"

// EnvModelsDir overrides the models directory location.
const EnvModelsDir = "LEAFSCAN_MODELS_DIR"

// findProjectRoot finds the project root by looking for go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", errors.New("could not find project root (go.mod not found)")
}

// AssetInfo contains metadata about a bundled model asset.
type AssetInfo struct {
	Name        string
	Type        string
	Variant     string
	Description string
	Filename    string
}

// GetModelsDir returns the models directory path.
// Priority: explicit modelsDir parameter, environment variable, project root
// plus the default directory.
func GetModelsDir(modelsDir string) string {
	if modelsDir != "" {
		return modelsDir
	}
	if envDir := os.Getenv(EnvModelsDir); envDir != "" {
		return envDir
	}
	if projectRoot, err := findProjectRoot(); err == nil {
		return filepath.Join(projectRoot, DefaultModelsDir)
	}
	return DefaultModelsDir
}

// ResolveAssetPath resolves an asset filename to its full path. The
// organized structure (models/<type>/<variant>/<file>) is preferred; a flat
// models directory still works for hand-assembled installs.
func ResolveAssetPath(modelsDir, assetType, variant, filename string) string {
	baseDir := GetModelsDir(modelsDir)

	if assetType != "" {
		var organized string
		if variant != "" && assetType == TypeClassification {
			organized = filepath.Join(baseDir, assetType, variant, filename)
		} else {
			organized = filepath.Join(baseDir, assetType, filename)
		}
		if _, err := os.Stat(organized); err == nil {
			return organized
		}
	}

	return filepath.Join(baseDir, filename)
}

// GetClassifierModelPath returns the path for a classification model.
func GetClassifierModelPath(modelsDir string, useServer bool) string {
	filename := ClassifierMobile
	variant := VariantMobile
	if useServer {
		filename = ClassifierServer
		variant = VariantServer
	}
	return ResolveAssetPath(modelsDir, TypeClassification, variant, filename)
}

// GetLabelsPath returns the path for a label resource file.
func GetLabelsPath(modelsDir, filename string) string {
	return ResolveAssetPath(modelsDir, TypeLabels, "", filename)
}

// ValidateAssetExists checks if an asset file exists at the given path.
func ValidateAssetExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("model asset not found: %s", path)
	}
	return nil
}

// ListAvailableAssets returns information about the assets this build knows.
func ListAvailableAssets() []AssetInfo {
	return []AssetInfo{
		{
			Name:        "mobile-classifier",
			Type:        TypeClassification,
			Variant:     VariantMobile,
			Description: "MobileNetV2 plant disease classifier (160x160 input)",
			Filename:    ClassifierMobile,
		},
		{
			Name:        "server-classifier",
			Type:        TypeClassification,
			Variant:     VariantServer,
			Description: "EfficientNet-B0 plant disease classifier (160x160 input)",
			Filename:    ClassifierServer,
		},
		{
			Name:        "plantvillage-labels",
			Type:        TypeLabels,
			Variant:     "",
			Description: "PlantVillage species___status label list",
			Filename:    LabelsPlantVillage,
		},
	}
}
