package generator_test

import (
	"testing"

	"github.com/ipchama/dhcpsentry/generator"
	"github.com/ipchama/dhcpsentry/message"
	"github.com/ipchama/dhcpsentry/stats"
)

type TestScanConfig struct {
	sType string
}

func (t *TestScanConfig) ScanType() string {
	return t.sType
}

type TestGenerator struct {
	done chan struct{}
}

func (t *TestGenerator) Init() error {
	return nil
}

func (t *TestGenerator) Update(i interface{}) error {
	return nil
}

func (t *TestGenerator) Run() {
}

func (t *TestGenerator) Stop() error {
	return nil
}

func (t *TestGenerator) DeInit() error {
	return nil
}

func (t *TestGenerator) Done() <-chan struct{} {
	return t.done
}

func TestNew(t *testing.T) {

	o := &TestScanConfig{
		sType: "__TEST__",
	}

	logFunc := func(string) bool { return true }
	errFunc := func(error) bool { return true }
	statFunc := func(stats.StatValue) bool { return true }
	cycleFunc := func(message.Message) bool { return true }

	if _, err := generator.New(nil, o, logFunc, errFunc, statFunc, cycleFunc); err == nil {
		t.Errorf("Generator factory did not return error for unknown type.")
	}

	if err := generator.AddGenerator(o.sType, func(g generator.GeneratorInitParams) generator.Generator { return &TestGenerator{} }); err != nil {
		t.Errorf("Generator factory failed to add new type.")
	}

	if err := generator.AddGenerator(o.sType, func(g generator.GeneratorInitParams) generator.Generator { return &TestGenerator{} }); err == nil {
		t.Errorf("Generator factory allowed duplicate type.")
	}

	if _, err := generator.New(nil, o, logFunc, errFunc, statFunc, cycleFunc); err != nil {
		t.Errorf("Generator factory failed to return known type.")
	}

}
