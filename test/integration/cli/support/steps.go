package support

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cucumber/godog"
)

// RegisterSteps registers all step definitions.
func (testCtx *TestContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a label catalog file "([^"]*)" with:$`, testCtx.aLabelCatalogFileWith)
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the output should contain usage information$`, testCtx.theOutputShouldContainUsageInformation)
	sc.Step(`^a file "([^"]*)" should exist$`, testCtx.aFileShouldExist)
}

// aLabelCatalogFileWith writes a label file into the temp dir. The file is
// addressable in commands as ${name}.
func (testCtx *TestContext) aLabelCatalogFileWith(name string, content *godog.DocString) error {
	path := filepath.Join(testCtx.TempDir, name)
	if err := os.WriteFile(path, []byte(content.Content+"\n"), 0o600); err != nil {
		return fmt.Errorf("failed to write label file: %w", err)
	}
	testCtx.Files[name] = path
	return nil
}

// substituteVariables replaces ${file} placeholders and ${TMP} with the
// paths created by prior steps.
func (testCtx *TestContext) substituteVariables(command string) string {
	command = strings.ReplaceAll(command, "${TMP}", testCtx.TempDir)
	for name, path := range testCtx.Files {
		command = strings.ReplaceAll(command, "${"+name+"}", path)
	}
	return command
}

// iRunCommand executes a CLI command and captures its result.
func (testCtx *TestContext) iRunCommand(command string) error {
	command = testCtx.substituteVariables(command)

	testCtx.LastCommand = command
	testCtx.LastStartTime = time.Now()

	parts := strings.Fields(command)
	if len(parts) == 0 {
		return errors.New("empty command")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Dir = testCtx.TempDir
	cmd.Env = append(os.Environ(), testCtx.EnvVars...)

	output, err := cmd.CombinedOutput()
	testCtx.LastOutput = string(output)
	testCtx.LastError = err
	testCtx.LastDuration = time.Since(testCtx.LastStartTime)

	if err != nil {
		exitError := &exec.ExitError{}
		if errors.As(err, &exitError) {
			testCtx.LastExitCode = exitError.ExitCode()
		} else {
			testCtx.LastExitCode = -1
		}
	} else {
		testCtx.LastExitCode = 0
	}

	return nil
}

// theCommandShouldSucceed verifies the command succeeded.
func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command failed with exit code %d: %w\nOutput: %s",
			testCtx.LastExitCode, testCtx.LastError, testCtx.LastOutput)
	}
	return nil
}

// theCommandShouldFail verifies the command failed.
func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("command succeeded when it should have failed\nOutput: %s", testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldContain verifies the output contains specific text.
func (testCtx *TestContext) theOutputShouldContain(expectedText string) error {
	if !strings.Contains(testCtx.LastOutput, expectedText) {
		return fmt.Errorf("output does not contain '%s'\nActual output: %s", expectedText, testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldNotContain verifies the output lacks specific text.
func (testCtx *TestContext) theOutputShouldNotContain(text string) error {
	if strings.Contains(testCtx.LastOutput, text) {
		return fmt.Errorf("output contains '%s' but should not\nActual output: %s", text, testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldBeValidJSON verifies the output parses as JSON, skipping
// any preceding progress text.
func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	output := strings.TrimSpace(testCtx.LastOutput)

	jsonStart := -1
	for i, r := range output {
		if r == '{' || r == '[' {
			jsonStart = i
			break
		}
	}
	if jsonStart == -1 {
		return fmt.Errorf("no JSON found in output: %s", output)
	}

	var v interface{}
	if err := json.Unmarshal([]byte(output[jsonStart:]), &v); err != nil {
		return fmt.Errorf("output is not valid JSON: %w\nOutput: %s", err, output)
	}
	return nil
}

// theOutputShouldContainUsageInformation checks for help text markers.
func (testCtx *TestContext) theOutputShouldContainUsageInformation() error {
	usageIndicators := []string{"Usage:", "usage:", "help", "Help"}
	for _, indicator := range usageIndicators {
		if strings.Contains(testCtx.LastOutput, indicator) {
			return nil
		}
	}
	return fmt.Errorf("output does not contain usage information: %s", testCtx.LastOutput)
}

// aFileShouldExist checks that a step-created or command-created file exists.
func (testCtx *TestContext) aFileShouldExist(name string) error {
	path := testCtx.substituteVariables(name)
	if !filepath.IsAbs(path) {
		path = filepath.Join(testCtx.TempDir, path)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file %s does not exist: %w", path, err)
	}
	return nil
}
