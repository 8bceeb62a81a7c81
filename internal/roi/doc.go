// Package roi models hand-joint landmark annotations and the oriented
// rectangular regions of interest derived from them.
//
// A Descriptor is one landmark: ROI center, rotation angle and anatomical
// label plus the ROI extent for the run. An Annotation is the ordered set
// of descriptors for one scan, read from and written to the annotation
// text format. The package also extracts upright pixel patches for rotated
// ROIs and rasterizes their binary occupancy masks.
package roi
