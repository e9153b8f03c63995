package ntfs

import (
	"testing"
)

func TestOpenVolumeParsesGeometryAndUpcase(t *testing.T) {
	fixture := buildTestVolume()
	vol, err := fixture.open()
	if err != nil {
		t.Fatalf("open volume: %v", err)
	}
	defer vol.Close()

	if vol.boot.bytesPerSector != testSectorSize {
		t.Errorf("bytesPerSector = %d, want %d", vol.boot.bytesPerSector, testSectorSize)
	}
	if vol.boot.bytesPerFileRecord != testRecordSize {
		t.Errorf("bytesPerFileRecord = %d, want %d", vol.boot.bytesPerFileRecord, testRecordSize)
	}
	if !vol.upcase.foldEqual("hello.txt", "HELLO.TXT") {
		t.Error("expected loaded $UpCase table to fold ASCII case")
	}
}

func TestVolumeReadRecordFollowsMFTDataRuns(t *testing.T) {
	fixture := buildTestVolume()
	vol, err := fixture.open()
	if err != nil {
		t.Fatalf("open volume: %v", err)
	}
	defer vol.Close()

	rec, err := vol.readRecord(mftRecordRoot)
	if err != nil {
		t.Fatalf("readRecord(root): %v", err)
	}
	if !rec.isDir {
		t.Error("expected root record to be a directory")
	}
	if !rec.inUse {
		t.Error("expected root record to be in use")
	}
}

func TestVolumeTimestampReadsStandardInformation(t *testing.T) {
	fixture := buildTestVolume()
	vol, err := fixture.open()
	if err != nil {
		t.Fatalf("open volume: %v", err)
	}
	defer vol.Close()

	ts, err := vol.Timestamp("hello.txt")
	if err != nil {
		t.Fatalf("Timestamp: %v", err)
	}
	if !ts.Equal(fixture.fileModified) {
		t.Errorf("Timestamp = %v, want %v", ts, fixture.fileModified)
	}
}

func TestVolumeOpenStreamReturnsResidentData(t *testing.T) {
	fixture := buildTestVolume()
	vol, err := fixture.open()
	if err != nil {
		t.Fatalf("open volume: %v", err)
	}
	defer vol.Close()

	r, size, err := vol.OpenStream("hello.txt", "")
	if err != nil {
		t.Fatalf("OpenStream: %v", err)
	}
	if size != int64(len(fixture.fileContent)) {
		t.Errorf("size = %d, want %d", size, len(fixture.fileContent))
	}
	buf := make([]byte, size)
	n, err := r.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != string(fixture.fileContent) {
		t.Errorf("content = %q, want %q", buf[:n], fixture.fileContent)
	}
}
