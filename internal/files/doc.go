// Package files writes daily orbit files and discovers the ones already on
// disk.
//
// Manager writes one file per day into an existing output directory. It never
// creates the directory: a missing or unwritable directory is a storage error
// the caller reports.
//
// Discovery lists the daily files already present so a run can skip or resume
// after them.
//
//	m := files.NewManager()
//	if err := m.CheckDir(dir); err != nil {
//	    return err
//	}
//	path, err := m.Write(dir, rec.Filename, rec.Lines)
package files
