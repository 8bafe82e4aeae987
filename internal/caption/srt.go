package caption

import (
	"bufio"
	"fmt"
	"io"
)

// WriteSRT writes the track in SubRip format.
func WriteSRT(w io.Writer, track Track) error {
	writer := bufio.NewWriter(w)

	for i, iv := range track.Intervals {
		if _, err := fmt.Fprintf(writer, "%d\n%s --> %s\n%s\n\n",
			i+1,
			FormatTimestamp(iv.StartMs),
			FormatTimestamp(iv.EndMs),
			iv.Text,
		); err != nil {
			return fmt.Errorf("write caption %d: %w", i+1, err)
		}
	}

	return writer.Flush()
}
