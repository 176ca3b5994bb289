package restyutil

import (
	"fmt"
	"os"
	"path/filepath"
	devenv "wastenot-e2e/dev/env"
	"wastenot-e2e/internal/components/telemetry"
)

const report_fs_output_write = "fs-output.write"

// FilesystemOutput writes one file per HTTP message into a directory that is
// cleared when the output is created.
type FilesystemOutput struct {
	directory string
	tel       telemetry.API
}

func NewFilesystemOutput(dir string, tel telemetry.API) (FilesystemOutput, error) {
	dir, err := devenv.ResolvePath(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.RemoveAll(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{
		directory: dir,
		tel:       telemetry.NewScopedAPI("restyutil", tel),
	}, nil
}

func (o FilesystemOutput) Directory() string {
	return o.directory
}

func (o FilesystemOutput) Write(id string, contents string) {
	path := filepath.Join(o.directory, fmt.Sprintf("%s.http.txt", id))
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		o.tel.ReportWarning(report_fs_output_write, id, err)
	}
}
