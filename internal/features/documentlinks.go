package features

import (
	"github.com/standardbeagle/lcserver/internal/frontend"
	"github.com/standardbeagle/lcserver/internal/lspproto"
	"github.com/standardbeagle/lcserver/internal/posconv"
	"github.com/standardbeagle/lcserver/internal/types"
)

// DocumentLinks produces one link per #include in fid (mapping its filename
// range to the resolved target path) plus one per resolved __has_include
// query, per spec §4.12. includeSkipped distinguishes the query-path variant
// (false: a re-inclusion already seen through an include guard is omitted)
// from the indexed variant (true: every #include the file spelled is
// reported, guarded or not).
func DocumentLinks(unit *frontend.CompilationUnit, fid types.FileID, enc posconv.Encoding, includeSkipped bool) []lspproto.DocumentLink {
	rec, ok := unit.Directives(fid)
	if !ok {
		return nil
	}
	content, _ := unit.Content(fid)

	var out []lspproto.DocumentLink
	for _, inc := range rec.Includes {
		if inc.Skipped && !includeSkipped {
			continue
		}
		target, ok := unit.Path(inc.TargetFID)
		if !ok {
			continue
		}
		out = append(out, lspproto.DocumentLink{
			Range:  toWireRange(content, inc.FilenameRange, enc),
			Target: lspproto.PathToFileURI(target),
		})
	}
	for _, hi := range rec.HasIncludes {
		if hi.TargetFID == types.InvalidFileID {
			continue
		}
		target, ok := unit.Path(hi.TargetFID)
		if !ok {
			continue
		}
		loc := hi.Location
		out = append(out, lspproto.DocumentLink{
			Range:  toWireRange(content, types.LocalSourceRange{Begin: loc, End: loc}, enc),
			Target: lspproto.PathToFileURI(target),
		})
	}
	return out
}

func toWireRange(content []byte, r types.LocalSourceRange, enc posconv.Encoding) lspproto.Range {
	start := posconv.ToPosition(content, int(r.Begin), enc)
	end := posconv.ToPosition(content, int(r.End), enc)
	return lspproto.Range{
		Start: lspproto.Position{Line: start.Line, Character: start.Character},
		End:   lspproto.Position{Line: end.Line, Character: end.Character},
	}
}
