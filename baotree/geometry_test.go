package baotree

import "testing"

func TestChunkCount(t *testing.T) {
	cases := []struct {
		length uint64
		want   uint64
	}{
		{0, 1},
		{1, 1},
		{ChunkSize, 1},
		{ChunkSize + 1, 2},
		{2 * ChunkSize, 2},
		{3 * ChunkSize, 3},
	}
	for _, c := range cases {
		if got := ChunkCount(c.length); got != c.want {
			t.Errorf("ChunkCount(%d) = %d, want %d", c.length, got, c.want)
		}
	}
}

func TestLeftLen(t *testing.T) {
	cases := []struct {
		length uint64
		want   uint64
	}{
		{ChunkSize + 1, ChunkSize},
		{2 * ChunkSize, ChunkSize},
		{3 * ChunkSize, 2 * ChunkSize},
		{4 * ChunkSize, 2 * ChunkSize},
		{5 * ChunkSize, 4 * ChunkSize},
		{8 * ChunkSize, 4 * ChunkSize},
	}
	for _, c := range cases {
		got := LeftLen(c.length)
		if got != c.want {
			t.Errorf("LeftLen(%d) = %d, want %d", c.length, got, c.want)
		}
		right := c.length - got
		if right > got {
			t.Errorf("LeftLen(%d): right_len %d > left_len %d", c.length, right, got)
		}
		if got%ChunkSize != 0 {
			t.Errorf("LeftLen(%d) = %d is not a chunk multiple", c.length, got)
		}
	}
}

func TestLeftLenPanicsOnLeaf(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic calling LeftLen on a leaf-sized subtree")
		}
	}()
	LeftLen(ChunkSize)
}

func TestEncodedSize(t *testing.T) {
	cases := []struct {
		length uint64
		want   uint64
	}{
		{0, HeaderSize},
		{1, HeaderSize + 1},
		{1024, HeaderSize + 1024},
		{ChunkSize, HeaderSize + ChunkSize},
		{ChunkSize + 1, HeaderSize + ParentSize + ChunkSize + 1},
		{2 * ChunkSize, HeaderSize + ParentSize + 2*ChunkSize},
		{3 * ChunkSize, HeaderSize + 2*ParentSize + 3*ChunkSize},
	}
	for _, c := range cases {
		if got := EncodedSize(c.length); got != c.want {
			t.Errorf("EncodedSize(%d) = %d, want %d", c.length, got, c.want)
		}
		checked, err := EncodedSizeChecked(c.length)
		if err != nil {
			t.Fatalf("EncodedSizeChecked(%d): %v", c.length, err)
		}
		if checked != c.want {
			t.Errorf("EncodedSizeChecked(%d) = %d, want %d", c.length, checked, c.want)
		}
	}
}

func TestOutboardSize(t *testing.T) {
	for _, length := range []uint64{0, 1, ChunkSize, ChunkSize + 1, 2 * ChunkSize} {
		want := EncodedSize(length) - length
		if got := OutboardSize(length); got != want {
			t.Errorf("OutboardSize(%d) = %d, want %d", length, got, want)
		}
	}
}

func TestAddOffsetChecked(t *testing.T) {
	got, err := AddOffsetChecked(10, 5)
	if err != nil || got != 15 {
		t.Fatalf("AddOffsetChecked(10, 5) = %d, %v", got, err)
	}
	got, err = AddOffsetChecked(10, -5)
	if err != nil || got != 5 {
		t.Fatalf("AddOffsetChecked(10, -5) = %d, %v", got, err)
	}
	if _, err := AddOffsetChecked(0, -1); err != ErrOverflow {
		t.Fatalf("AddOffsetChecked(0, -1) should overflow, got %v", err)
	}
	if _, err := AddOffsetChecked(^uint64(0), 1); err != ErrOverflow {
		t.Fatalf("AddOffsetChecked(max, 1) should overflow, got %v", err)
	}
}
