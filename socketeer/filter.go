package socketeer

import (
	"golang.org/x/net/bpf"
	"golang.org/x/sys/unix"
)

// ClientPortFilter returns a classic BPF program accepting unfragmented
// IPv4/UDP Ethernet frames addressed to port.
func ClientPortFilter(port int) []bpf.Instruction {
	return []bpf.Instruction{
		bpf.LoadAbsolute{Off: 12, Size: 2},                          // ethertype
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: 0x0800, SkipFalse: 8},  // IPv4
		bpf.LoadAbsolute{Off: 23, Size: 1},                          // ip protocol
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: 17, SkipFalse: 6},      // UDP
		bpf.LoadAbsolute{Off: 20, Size: 2},                          // flags, fragment offset
		bpf.JumpIf{Cond: bpf.JumpBitsSet, Val: 0x1fff, SkipTrue: 4}, // not a trailing fragment
		bpf.LoadMemShift{Off: 14},                                   // x = ip header length
		bpf.LoadIndirect{Off: 16, Size: 2},                          // udp destination port
		bpf.JumpIf{Cond: bpf.JumpEqual, Val: uint32(port), SkipFalse: 1},
		bpf.RetConstant{Val: 0x40000},
		bpf.RetConstant{Val: 0},
	}
}

// SockFprog assembles a BPF program into the form SO_ATTACH_FILTER expects.
func SockFprog(prog []bpf.Instruction) (*unix.SockFprog, error) {
	raw, err := bpf.Assemble(prog)
	if err != nil {
		return nil, err
	}

	filter := make([]unix.SockFilter, len(raw))
	for i, ins := range raw {
		filter[i] = unix.SockFilter{Code: ins.Op, Jt: ins.Jt, Jf: ins.Jf, K: ins.K}
	}

	return &unix.SockFprog{Len: uint16(len(filter)), Filter: &filter[0]}, nil
}

// AcceptAllFilter passes every frame.
func AcceptAllFilter() []bpf.Instruction {
	return []bpf.Instruction{
		bpf.RetConstant{Val: 0x40000},
	}
}
