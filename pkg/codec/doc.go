// Package codec converts demo recordings between their binary lump form and a
// structured Document, losslessly in both directions.
//
// # Recording Format
//
// A recording is a fixed header, a run of tic records and a one-byte end
// marker:
//
//	[Header(8|13)][Tic(4)]...[Tic(4)][0x80]
//
// The first header byte is the game version and selects the header layout:
//   - version <= 102: game_version, skill_level, episode, map,
//     player1_present..player4_present (8 bytes)
//   - version > 102: game_version, skill_level, episode, map,
//     multiplayer_mode, flag_respawn, flag_fast, flag_nomonsters, player_pov,
//     player1_present..player4_present (13 bytes)
//
// Header values are kept as raw unsigned bytes. No field is interpreted.
//
// Each tic is four single-byte fields:
//   - movement: int8
//   - strafing: int8
//   - turning: int8
//   - action: uint8
//
// # Usage
//
//	codec := codec.NewRecordCodec(codec.WithWarningHandler(func(w codec.Warning) {
//	    log.Println(w)
//	}))
//
//	doc, err := codec.Decode(data)
//	if err != nil {
//	    return err
//	}
//
//	data, err = codec.Encode(doc)
//
// For any well-formed recording, Encode(Decode(b)) == b.
//
// # Error Handling
//
// Decode fails with ErrMalformedInput when the buffer is empty or too short
// for the header its version selects. A missing end marker and a tic region
// that is not a multiple of four are warnings: the conversion continues, the
// last byte is discarded as if it were the marker and partial tics are
// dropped. WithStrict turns these warnings into ErrSentinelMismatch and
// ErrFrameAlignment.
//
// Encode fails with ErrRange when a header value or tic field does not fit
// its byte.
//
// # Thread Safety
//
// RecordCodec instances are safe for concurrent use. Decode and Encode are
// pure transforms over their input.
package codec
