package photo

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func TestCoordsRejectsNonImage(t *testing.T) {
	_, err := Coords(bytes.NewReader([]byte("not a jpeg")))
	if err == nil {
		t.Fatal("garbage input accepted")
	}

	var noLoc *ErrNoLocation
	if !errors.As(err, &noLoc) {
		t.Errorf("error type = %T, want *ErrNoLocation", err)
	}
}

func TestCoordsRejectsJPEGWithoutExif(t *testing.T) {
	// A bare JPEG SOI/EOI pair with no APP1 segment.
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	_, err := Coords(bytes.NewReader(jpeg))

	var noLoc *ErrNoLocation
	if !errors.As(err, &noLoc) {
		t.Fatalf("err = %v, want *ErrNoLocation", err)
	}
}

func TestCoordsFromGPSTags(t *testing.T) {
	p, err := Coords(bytes.NewReader(gpsJPEG('N', 'W', 45, 73)))
	if err != nil {
		t.Fatalf("Coords: %v", err)
	}
	if math.Abs(p.Lat-45.5) > 1e-9 || math.Abs(p.Lon+73.5) > 1e-9 {
		t.Errorf("position = %v, want 45.5 N, 73.5 W", p)
	}
}

func TestCoordsRejectsOutOfRangeGPS(t *testing.T) {
	_, err := Coords(bytes.NewReader(gpsJPEG('N', 'E', 45, 200)))

	var noLoc *ErrNoLocation
	if !errors.As(err, &noLoc) {
		t.Fatalf("err = %v, want *ErrNoLocation", err)
	}
}

// gpsJPEG builds a minimal JPEG whose APP1 block carries only the GPS
// IFD: hemisphere refs inline, degrees plus 30 minutes for each axis.
func gpsJPEG(latRef, lonRef byte, latDeg, lonDeg uint32) []byte {
	le := binary.LittleEndian
	var tif bytes.Buffer

	tif.WriteString("II")
	binary.Write(&tif, le, uint16(42))
	binary.Write(&tif, le, uint32(8))

	entry := func(tag, typ uint16, count, value uint32) {
		binary.Write(&tif, le, tag)
		binary.Write(&tif, le, typ)
		binary.Write(&tif, le, count)
		binary.Write(&tif, le, value)
	}
	ref := func(tag uint16, r byte) {
		binary.Write(&tif, le, tag)
		binary.Write(&tif, le, uint16(2)) // ASCII
		binary.Write(&tif, le, uint32(2))
		tif.Write([]byte{r, 0, 0, 0})
	}

	// IFD0: a single pointer to the GPS sub-IFD at offset 26.
	binary.Write(&tif, le, uint16(1))
	entry(0x8825, 4, 1, 26)
	binary.Write(&tif, le, uint32(0))

	// GPS IFD: lat/lon rationals live at offsets 80 and 104.
	binary.Write(&tif, le, uint16(4))
	ref(0x0001, latRef)
	entry(0x0002, 5, 3, 80)
	ref(0x0003, lonRef)
	entry(0x0004, 5, 3, 104)
	binary.Write(&tif, le, uint32(0))

	rationals := func(deg uint32) {
		for _, r := range [][2]uint32{{deg, 1}, {30, 1}, {0, 1}} {
			binary.Write(&tif, le, r[0])
			binary.Write(&tif, le, r[1])
		}
	}
	rationals(latDeg)
	rationals(lonDeg)

	payload := append([]byte("Exif\x00\x00"), tif.Bytes()...)
	var jpg bytes.Buffer
	jpg.Write([]byte{0xFF, 0xD8, 0xFF, 0xE1})
	binary.Write(&jpg, binary.BigEndian, uint16(len(payload)+2))
	jpg.Write(payload)
	jpg.Write([]byte{0xFF, 0xD9})
	return jpg.Bytes()
}
