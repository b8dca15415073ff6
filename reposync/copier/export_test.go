package copier

// FileDigestForTest exposes fileDigest.
var FileDigestForTest = fileDigest

// SameContentForTest exposes sameContent.
var SameContentForTest = sameContent
