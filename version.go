package onshapeexporter

// Version is the current release of the exporter.
const Version = "0.1.0"
