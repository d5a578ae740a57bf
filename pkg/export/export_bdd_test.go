package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"fleetdesk/exporter/pkg/record"
)

// exportBDDTestContext holds state for one scenario.
type exportBDDTestContext struct {
	input    any
	sink     *captureSink
	renderer *fakeRenderer
	err      error
}

func (c *exportBDDTestContext) reset() {
	c.input = nil
	c.sink = &captureSink{}
	c.renderer = &fakeRenderer{}
	c.err = nil
}

// theRecords keeps ordered records when the document is an array of
// objects and the decoded value otherwise, so shape errors surface from the
// dispatcher.
func (c *exportBDDTestContext) theRecords(doc *godog.DocString) error {
	if rs, err := record.ParseJSON([]byte(doc.Content)); err == nil {
		c.input = rs
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(doc.Content), &v); err != nil {
		return fmt.Errorf("fixture is not JSON: %w", err)
	}
	c.input = v
	return nil
}

func (c *exportBDDTestContext) iExportTheRecordsAs(format, name string) error {
	d := NewDispatcher(nil, WithSink(c.sink), WithRenderer(c.renderer))
	c.err = d.Export(context.Background(), c.input, format, name)
	return nil
}

func (c *exportBDDTestContext) theExportSucceeds() error {
	if c.err != nil {
		return fmt.Errorf("expected success, got %v", c.err)
	}
	if c.sink.count() != 1 {
		return fmt.Errorf("expected one delivered artifact, got %d", c.sink.count())
	}
	return nil
}

func (c *exportBDDTestContext) theArtifactIsNamed(name string) error {
	if got := c.sink.artifacts[0].Name; got != name {
		return fmt.Errorf("artifact name = %q, want %q", got, name)
	}
	return nil
}

func (c *exportBDDTestContext) theArtifactBodyIs(doc *godog.DocString) error {
	got := string(c.sink.artifacts[0].Body)
	if got != doc.Content {
		return fmt.Errorf("artifact body = %q, want %q", got, doc.Content)
	}
	return nil
}

func (c *exportBDDTestContext) theRenderedTableHasHeadersAndRows(headers string, rows int) error {
	if len(c.renderer.tables) != 1 {
		return fmt.Errorf("renderer called %d times", len(c.renderer.tables))
	}
	table := c.renderer.tables[0]
	if got := strings.Join(table.Headers, ","); got != headers {
		return fmt.Errorf("headers = %q, want %q", got, headers)
	}
	if len(table.Rows) != rows {
		return fmt.Errorf("rows = %d, want %d", len(table.Rows), rows)
	}
	return nil
}

func (c *exportBDDTestContext) theExportFailsWith(kind string) error {
	target := map[string]error{
		"unsupported format": ErrUnsupportedFormat,
		"invalid input":      record.ErrInvalidInput,
	}[kind]
	if !errors.Is(c.err, target) {
		return fmt.Errorf("expected %s error, got %v", kind, c.err)
	}
	return nil
}

func (c *exportBDDTestContext) nothingIsDelivered() error {
	if n := c.sink.count(); n != 0 {
		return fmt.Errorf("expected no delivery, got %d artifacts", n)
	}
	return nil
}

// InitializeExportScenario registers the export steps.
func InitializeExportScenario(ctx *godog.ScenarioContext) {
	testCtx := &exportBDDTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		testCtx.reset()
		return ctx, nil
	})

	ctx.Step(`^the records:$`, testCtx.theRecords)
	ctx.Step(`^I export the records as "([^"]*)" named "([^"]*)"$`, testCtx.iExportTheRecordsAs)
	ctx.Step(`^the export succeeds$`, testCtx.theExportSucceeds)
	ctx.Step(`^the artifact is named "([^"]*)"$`, testCtx.theArtifactIsNamed)
	ctx.Step(`^the artifact body is:$`, testCtx.theArtifactBodyIs)
	ctx.Step(`^the rendered table has headers "([^"]*)" and (\d+) rows?$`, testCtx.theRenderedTableHasHeadersAndRows)
	ctx.Step(`^the export fails with an? (unsupported format|invalid input) error$`, testCtx.theExportFailsWith)
	ctx.Step(`^nothing is delivered$`, testCtx.nothingIsDelivered)
}

// TestExportFeatures runs the BDD tests for the export package.
func TestExportFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeExportScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/export.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
