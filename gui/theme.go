package gui

// Palette defines the colors shared by the selection overlay, the
// result panel and pinned windows.
const (
	ColorPanelBg   = "#2D2D2D" // panel and pinned window background
	ColorSurface   = "#3D3D3D" // title bars, secondary surfaces
	ColorTextArea  = "#1E1E1E" // result text background
	ColorText      = "#FFFFFF"
	ColorAccent    = "#00BFFF" // deep sky blue: selection border, panel border
	ColorCopyBtn   = "#4A4A4A"
	ColorAcceptBtn = "#2E7D32"
	ColorPinBtn    = "#1565C0"
	ColorCancelBtn = "#C62828"
)
