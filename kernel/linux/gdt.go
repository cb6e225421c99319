package linux

const GdtEntries = 32

// Gdt is the global descriptor table: fixed-size 8-byte segment
// descriptor records, slot 0 reserved. It exists solely to back
// thread-local-storage setup via set_thread_area.
type Gdt struct {
	entries [GdtEntries][8]byte
}

func NewGdt() *Gdt {
	return &Gdt{}
}

func (g *Gdt) Len() int {
	return GdtEntries
}

// Present reports the P bit of a descriptor.
func (g *Gdt) Present(slot int) bool {
	return g.entries[slot][5]&0x80 != 0
}

// SetEntry writes base and limit into the descriptor's split fields and
// marks it present. Layout per the IA-32 segment descriptor: limit[0:16]
// in bytes 0-1, base[0:16] in 2-3, base[16:24] in 4, access in 5,
// limit[16:20] in the low nibble of 6, base[24:32] in 7.
func (g *Gdt) SetEntry(slot int, base, limit uint32) {
	e := &g.entries[slot]
	e[0] = byte(limit)
	e[1] = byte(limit >> 8)
	e[2] = byte(base)
	e[3] = byte(base >> 8)
	e[4] = byte(base >> 16)
	e[6] = e[6]&0xF0 | byte(limit>>16)&0x0F
	e[7] = byte(base >> 24)
	e[5] |= 0x80
}
