package features

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"

	"github.com/drew/rotacheck/internal/compliance"
	"github.com/drew/rotacheck/internal/config"
	"github.com/drew/rotacheck/internal/prefs"
)

type settingsContext struct {
	*sharedContext

	store     *prefs.SQLiteStore
	prefs     *prefs.Preferences
	stored    bool
	storeErr  error
	dark      bool
	configDoc string
	result    *config.ValidationResult
}

func (c *settingsContext) dbPath() (string, error) {
	dir, err := c.workDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "prefs.db"), nil
}

func (c *settingsContext) open() error {
	path, err := c.dbPath()
	if err != nil {
		return err
	}
	store, err := prefs.Open(path)
	if err != nil {
		return err
	}
	c.store = store
	c.prefs = prefs.New(store, compliance.DefaultThreshold)
	return nil
}

func (c *settingsContext) close() {
	if c.store != nil {
		_ = c.store.Close()
		c.store = nil
	}
}

func (c *settingsContext) anEmptyPreferencesDatabase() error {
	return c.open()
}

func (c *settingsContext) iStoreTheThreshold(raw string) error {
	c.stored, c.storeErr = c.prefs.SetThreshold(raw)
	return nil
}

func (c *settingsContext) iReopenThePreferencesDatabase() error {
	c.close()
	return c.open()
}

func (c *settingsContext) storingShouldHaveFailed() error {
	if c.stored && c.storeErr == nil {
		return fmt.Errorf("expected the threshold to be rejected")
	}
	return nil
}

func (c *settingsContext) theEffectiveThresholdShouldBe(want int) error {
	if got := c.prefs.Threshold(); got != want {
		return fmt.Errorf("expected threshold %d, got %d", want, got)
	}
	return nil
}

func (c *settingsContext) iToggleTheTheme() error {
	dark, err := c.prefs.ToggleDarkMode()
	c.dark = dark
	return err
}

func (c *settingsContext) darkModeShouldBe(state string) error {
	want := state == "on"
	if c.dark != want || c.prefs.DarkMode() != want {
		return fmt.Errorf("expected dark mode %s", state)
	}
	return nil
}

func (c *settingsContext) aConfigFileContaining(doc *godog.DocString) error {
	dir, err := c.workDir()
	if err != nil {
		return err
	}
	c.configDoc = filepath.Join(dir, config.DefaultConfigFile)
	return os.WriteFile(c.configDoc, []byte(doc.Content), 0644)
}

func (c *settingsContext) aStarterConfigFile() error {
	dir, err := c.workDir()
	if err != nil {
		return err
	}
	c.configDoc = filepath.Join(dir, config.DefaultConfigFile)
	return config.GenerateDefaultConfig(c.configDoc)
}

func (c *settingsContext) iValidateTheConfigFile() error {
	result, err := config.ValidateConfigFile(c.configDoc)
	if err != nil {
		return err
	}
	c.result = result
	return nil
}

func (c *settingsContext) validationShouldPass() error {
	if !c.result.Valid {
		return fmt.Errorf("expected a valid config, got %v", c.result.Errors)
	}
	return nil
}

func (c *settingsContext) validationShouldFailMentioning(text string) error {
	if c.result.Valid {
		return fmt.Errorf("expected validation to fail")
	}
	for _, e := range c.result.Errors {
		if strings.Contains(e.Error(), text) {
			return nil
		}
	}
	return fmt.Errorf("expected an error mentioning %q, got %v", text, c.result.Errors)
}

func InitializeSettingsScenario(ctx *godog.ScenarioContext, shared *sharedContext) {
	c := &settingsContext{sharedContext: shared}

	ctx.After(func(goCtx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		c.close()
		return goCtx, err
	})

	ctx.Step(`^an empty preferences database$`, c.anEmptyPreferencesDatabase)
	ctx.Step(`^I store the threshold "([^"]*)"$`, c.iStoreTheThreshold)
	ctx.Step(`^I reopen the preferences database$`, c.iReopenThePreferencesDatabase)
	ctx.Step(`^storing should have failed$`, c.storingShouldHaveFailed)
	ctx.Step(`^the effective threshold should be (\d+)$`, c.theEffectiveThresholdShouldBe)
	ctx.Step(`^I toggle the theme$`, c.iToggleTheTheme)
	ctx.Step(`^dark mode should be (on|off)$`, c.darkModeShouldBe)
	ctx.Step(`^a config file containing:$`, c.aConfigFileContaining)
	ctx.Step(`^a starter config file$`, c.aStarterConfigFile)
	ctx.Step(`^I validate the config file$`, c.iValidateTheConfigFile)
	ctx.Step(`^validation should pass$`, c.validationShouldPass)
	ctx.Step(`^validation should fail mentioning "([^"]*)"$`, c.validationShouldFailMentioning)
}
