package filestore

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/battlesnakeio/arcade/leaderboard"
	log "github.com/sirupsen/logrus"
)

var openFileReader = func(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// readLine returns the next line and whether more may follow.
func readLine(r *bufio.Reader) ([]byte, bool, error) {
	line, err := r.ReadBytes('\n')
	eof := err == io.EOF

	if err != nil && !eof {
		return nil, false, err
	}
	return bytes.TrimSpace(line), !eof, nil
}

// readRecords loads every record in the file. A missing file is an empty
// leaderboard. Lines that do not decode, such as one cut short by a crash,
// are skipped.
func readRecords(path string) ([]leaderboard.Record, error) {
	f, err := openFileReader(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := bufio.NewReader(f)
	records := []leaderboard.Record{}
	for n, more := 1, true; more; n++ {
		var line []byte
		line, more, err = readLine(reader)
		if err != nil {
			return nil, err
		}
		if len(line) == 0 {
			continue
		}

		r := leaderboard.Record{}
		if err := json.Unmarshal(line, &r); err != nil {
			log.WithError(err).
				WithFields(log.Fields{"path": path, "line": n}).
				Warn("skipping unreadable score")
			continue
		}
		records = append(records, r)
	}
	return records, nil
}
