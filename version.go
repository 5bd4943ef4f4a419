package conduit

// Version is the released version of conduit.
const Version = "0.1.0"
