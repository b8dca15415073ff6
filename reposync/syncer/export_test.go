package syncer

// PRBranchForTest exposes prBranch.
var PRBranchForTest = prBranch
