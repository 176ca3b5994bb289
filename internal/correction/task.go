package correction

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Task corrects the rows of one business key (a kitchen) to the Expected
// value (a campus/complex id). An empty Old selects every row of the key
// whose value is not Expected.
type Task struct {
	Key      string `yaml:"key" json:"key"`
	Expected string `yaml:"expected" json:"expected"`
	Old      string `yaml:"old,omitempty" json:"old,omitempty"`
}

func (t Task) Validate() error {
	if t.Key == "" {
		return errors.New("task key is empty")
	}
	if t.Expected == "" {
		return fmt.Errorf("task %s: expected value is empty", t.Key)
	}
	if t.Old == t.Expected {
		return fmt.Errorf("task %s: old value equals expected value %s", t.Key, t.Expected)
	}
	return nil
}

// ValidateTasks checks every task and rejects duplicate keys, the workflow
// assumes a conflict-free mapping.
func ValidateTasks(tasks []Task) error {
	seen := map[string]bool{}
	var errs []error
	for _, t := range tasks {
		err := t.Validate()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[t.Key] {
			errs = append(errs, fmt.Errorf("duplicate task key %s", t.Key))
		}
		seen[t.Key] = true
	}
	return errors.Join(errs...)
}

type mappingFile struct {
	Tasks []Task `yaml:"tasks"`
}

// LoadMapping reads tasks from a YAML file of the form:
//
//	tasks:
//	  - key: "1730"
//	    expected: C-40575
//	    old: C-31715
func LoadMapping(path string) ([]Task, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseMapping(contents)
}

func ParseMapping(contents []byte) ([]Task, error) {
	var file mappingFile
	err := yaml.Unmarshal(contents, &file)
	if err != nil {
		return nil, fmt.Errorf("parse mapping: %w", err)
	}
	err = ValidateTasks(file.Tasks)
	if err != nil {
		return nil, err
	}
	return file.Tasks, nil
}

// ExpectedByKey indexes a task list by key.
func ExpectedByKey(tasks []Task) map[string]string {
	out := make(map[string]string, len(tasks))
	for _, t := range tasks {
		out[t.Key] = t.Expected
	}
	return out
}
